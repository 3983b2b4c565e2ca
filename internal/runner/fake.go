package runner

import (
	"context"
	"strings"
)

// Fake records commands instead of running them
type Fake struct {
	// Missing lists tools LookPath reports as not installed
	Missing map[string]bool

	// RunFunc, when set, handles Run and Output calls
	RunFunc func(name string, args []string) ([]byte, error)

	Calls []string
}

func (f *Fake) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", &MissingDependencyError{Tool: name, Hint: InstallHint(name)}
	}
	return "/usr/bin/" + name, nil
}

func (f *Fake) Run(_ context.Context, name string, args ...string) error {
	_, err := f.exec(name, args)
	return err
}

func (f *Fake) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	return f.exec(name, args)
}

func (f *Fake) exec(name string, args []string) ([]byte, error) {
	f.Calls = append(f.Calls, strings.Join(append([]string{name}, args...), " "))
	if f.RunFunc != nil {
		return f.RunFunc(name, args)
	}
	return nil, nil
}
