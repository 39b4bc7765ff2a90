package params

import "time"

type WebDaemonConfig struct {
	ListenerConfig
	DataDir string
	// PNGCacheTTL is how long an encoded tile stays cached.
	PNGCacheTTL time.Duration
	// PNGCacheCapacity bounds the number of encoded tiles kept.
	PNGCacheCapacity uint64
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:          DefaultDatadirRoot,
		ListenerConfig:   DefaultWebListenerConfig(),
		PNGCacheTTL:      time.Minute,
		PNGCacheCapacity: 4096,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir: "",
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
		PNGCacheTTL:      time.Minute,
		PNGCacheCapacity: 64,
	}
}
