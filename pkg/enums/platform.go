package enums

import "fmt"

// Platform identifies the social network a linked account belongs to.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformMessenger Platform = "messenger"
)

var validPlatforms = []Platform{
	PlatformInstagram,
	PlatformMessenger,
}

// IsValid checks whether the platform is supported.
func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// PlatformFromObject maps the webhook "object" field to a Platform.
func PlatformFromObject(object string) (Platform, error) {
	switch object {
	case "instagram":
		return PlatformInstagram, nil
	case "page":
		return PlatformMessenger, nil
	}
	return "", fmt.Errorf("unsupported webhook object %q", object)
}
