package trust

import (
	"context"
	"plugin"
)

// Loader checks that a compiled module can be loaded by the running process.
type Loader interface {
	Load(ctx context.Context, path string) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) error

func (f LoaderFunc) Load(ctx context.Context, path string) error {
	return f(ctx, path)
}

// GoPluginLoader opens the module with the Go plugin loader. A module built
// with a different toolchain or dependency set fails to open.
type GoPluginLoader struct{}

func (GoPluginLoader) Load(_ context.Context, path string) error {
	_, err := plugin.Open(path)
	return err
}
