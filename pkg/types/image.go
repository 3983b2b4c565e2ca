package types

// Image represents an AMI candidate for launching the managed instance
type Image struct {
	ID           string
	Name         string
	CreationDate string // RFC 3339, as returned by DescribeImages
}
