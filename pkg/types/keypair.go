package types

// KeyPair represents an SSH key pair whose private half lives on local disk
// and whose public half may be registered with the provider
type KeyPair struct {
	Name           string
	PrivateKeyPath string
	PublicKeyPath  string
	Fingerprint    string
	Registered     bool // imported into the provider under Name
}

// SecurityGroup represents the security group attached to the managed instance
type SecurityGroup struct {
	ID      string
	Name    string
	Created bool // true when this run created it
}

// CallerIdentity represents the AWS identity behind the loaded credentials
type CallerIdentity struct {
	Account string
	Arn     string
	UserID  string
}
