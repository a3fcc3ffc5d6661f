package config

// ConfigCallback collects functions to be invoked once the configuration has
// been built, e.g. re-creating the global logger with configured sinks.
type ConfigCallback[T any] struct {
	callbacks []func(T)
}

func (cc *ConfigCallback[T]) AddCallback(f func(T)) {
	cc.callbacks = append(cc.callbacks, f)
}

func (cc *ConfigCallback[T]) Call(c T) {
	for _, f := range cc.callbacks {
		f(c)
	}
}
