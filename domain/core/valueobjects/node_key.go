package valueobjects

import (
	"errors"
	"strings"
)

// NodeKey is a value object uniquely identifying an identity node within a
// resolution graph: one platform plus the identifier the person uses there.
// Value objects are immutable and have no identity beyond their value.
type NodeKey struct {
	platform   Platform
	identifier string
}

// NewNodeKey creates a NodeKey, normalizing the identifier to lowercase so
// "KentCDodds" and "kentcdodds" address the same node.
func NewNodeKey(platform Platform, identifier string) (NodeKey, error) {
	if !platform.IsValid() {
		return NodeKey{}, errors.New("node key requires a supported platform")
	}
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return NodeKey{}, errors.New("node key identifier cannot be empty")
	}
	return NodeKey{platform: platform, identifier: identifier}, nil
}

// Platform returns the key's platform
func (k NodeKey) Platform() Platform {
	return k.platform
}

// Identifier returns the normalized identifier
func (k NodeKey) Identifier() string {
	return k.identifier
}

// String returns the "platform:identifier" representation used as map keys
// and in logs.
func (k NodeKey) String() string {
	return string(k.platform) + ":" + k.identifier
}

// Equals checks if two NodeKeys address the same identity node
func (k NodeKey) Equals(other NodeKey) bool {
	return k.platform == other.platform && k.identifier == other.identifier
}

// IsZero checks if the NodeKey is the zero value
func (k NodeKey) IsZero() bool {
	return k.platform == "" && k.identifier == ""
}

// MarshalJSON implements json.Marshaler
func (k NodeKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (k *NodeKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("NodeKey must be a string")
	}
	raw := string(data[1 : len(data)-1])
	platform, identifier, found := strings.Cut(raw, ":")
	if !found {
		return errors.New("NodeKey must have the form platform:identifier")
	}
	parsed, err := NewNodeKey(Platform(platform), identifier)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
