package appconfig

import "strings"

var (
	RawVersion   = "dev"
	MajorVersion string
	MinorVersion string
	Beta         bool
)

//SetVersion parses tag like v1.2.3 or v1.2.3-beta and sets version variables
func SetVersion(tag string) {
	if tag == "" {
		return
	}

	RawVersion = tag
	parts := strings.SplitN(strings.TrimPrefix(tag, "v"), "-", 2)
	Beta = len(parts) > 1 && strings.Contains(parts[1], "beta")

	numbers := strings.Split(parts[0], ".")
	MajorVersion = numbers[0]
	if len(numbers) > 1 {
		MinorVersion = numbers[1]
	}
}
