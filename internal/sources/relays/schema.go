package relays

// Config represents the top-level structure of relays.yaml, the seed
// list used when no endpoint set exists in Redis yet.
type Config struct {
	Relays []string `yaml:"relays"`
	Active string   `yaml:"active,omitempty"`
}
