package aws

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/vietdv277/awsfree/pkg/types"
)

var (
	credentialsSectionRe = regexp.MustCompile(`^\[([^\]]+)\]$`)
	configSectionRe      = regexp.MustCompile(`^\[profile\s+([^\]]+)\]$`)
	configDefaultRe      = regexp.MustCompile(`^\[default\]$`)
	regionRe             = regexp.MustCompile(`^\s*region\s*=\s*(.+)$`)
)

// ProfileNotFoundError is returned when --profile names a profile that is in
// neither shared AWS file
type ProfileNotFoundError struct {
	Name      string
	Available []string
}

func (e *ProfileNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("AWS profile %q not found and no profiles are configured", e.Name)
	}
	return fmt.Sprintf("AWS profile %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// SharedFiles returns the shared credentials and config file paths, honoring
// AWS_SHARED_CREDENTIALS_FILE and AWS_CONFIG_FILE
func SharedFiles() (string, string) {
	creds := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if creds == "" {
		creds = config.DefaultSharedCredentialsFilename()
	}
	cfg := os.Getenv("AWS_CONFIG_FILE")
	if cfg == "" {
		cfg = config.DefaultSharedConfigFilename()
	}
	return creds, cfg
}

// ListProfiles reads profiles from the shared credentials and config files.
// Missing files contribute nothing.
func ListProfiles(credentialsPath, configPath string) ([]types.AWSProfile, error) {
	byName := make(map[string]*types.AWSProfile)

	credProfiles, err := parseProfiles(credentialsPath, "credentials", false)
	if err != nil {
		return nil, err
	}
	for i := range credProfiles {
		byName[credProfiles[i].Name] = &credProfiles[i]
	}

	// The config file may add a region or SSO-only profiles
	cfgProfiles, err := parseProfiles(configPath, "config", true)
	if err != nil {
		return nil, err
	}
	for i := range cfgProfiles {
		p := cfgProfiles[i]
		if existing, ok := byName[p.Name]; ok {
			if existing.Region == "" {
				existing.Region = p.Region
			}
			continue
		}
		byName[p.Name] = &p
	}

	profiles := make([]types.AWSProfile, 0, len(byName))
	for _, p := range byName {
		profiles = append(profiles, *p)
	}

	// "default" first, then alphabetical
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Name == "default" {
			return true
		}
		if profiles[j].Name == "default" {
			return false
		}
		return profiles[i].Name < profiles[j].Name
	})

	return profiles, nil
}

// profileNotFound converts the SDK's missing profile error into a
// ProfileNotFoundError listing what is available
func profileNotFound(name string, err error) error {
	var notExist config.SharedConfigProfileNotExistError
	if !errors.As(err, &notExist) {
		return err
	}

	credsPath, cfgPath := SharedFiles()
	profiles, listErr := ListProfiles(credsPath, cfgPath)
	if listErr != nil {
		return err
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return &ProfileNotFoundError{Name: name, Available: names}
}

func parseProfiles(path, source string, isConfigFile bool) ([]types.AWSProfile, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer file.Close()

	var profiles []types.AWSProfile
	var current *types.AWSProfile

	start := func(name string) {
		if current != nil {
			profiles = append(profiles, *current)
		}
		current = &types.AWSProfile{Name: strings.TrimSpace(name), Source: source}
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if isConfigFile {
			// [default] or [profile name]; other sections (sso-session, services) are skipped
			if configDefaultRe.MatchString(line) {
				start("default")
				continue
			}
			if m := configSectionRe.FindStringSubmatch(line); len(m) == 2 {
				start(m[1])
				continue
			}
			if strings.HasPrefix(line, "[") {
				if current != nil {
					profiles = append(profiles, *current)
				}
				current = nil
				continue
			}
		} else if m := credentialsSectionRe.FindStringSubmatch(line); len(m) == 2 {
			start(m[1])
			continue
		}

		if current != nil {
			if m := regionRe.FindStringSubmatch(line); len(m) == 2 {
				current.Region = strings.TrimSpace(m[1])
			}
		}
	}

	if current != nil {
		profiles = append(profiles, *current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return profiles, nil
}
