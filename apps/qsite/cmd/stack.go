package cmd

import (
	"fmt"
	"os"

	"github.com/quatton/qsite/pkg/kv"
	"github.com/quatton/qsite/pkg/qdeploy"
)

// awsPluginVersion matches the pulumi-aws SDK this binary is built with.
const awsPluginVersion = "v5.43.0"

// Driver opens the stack driver and, when QSITE_REDIS_ADDR is set, the
// shared lock store. The returned func closes the store.
func (a *App) Driver(installPlugin bool) (*qdeploy.Driver, func(), error) {
	site, err := a.SiteArgs()
	if err != nil {
		return nil, nil, err
	}

	opts := qdeploy.Options{
		Project:    a.Config.Project,
		Stack:      a.Config.Stack,
		Region:     a.Config.Region,
		Site:       site,
		BackendURL: a.Env.PulumiBackendURL,
		LockTTL:    a.Env.LockTTL,
		Progress:   os.Stdout,
		Log:        a.Log,
	}
	if installPlugin {
		opts.PluginVersion = awsPluginVersion
	}

	closer := func() {}
	if a.Env.HasLock() {
		store, err := kv.NewValkeyStore(kv.ValkeyConfig{
			Addr:     a.Env.RedisAddr,
			Password: a.Env.RedisPassword,
			DB:       a.Env.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to lock store %s: %w", a.Env.RedisAddr, err)
		}
		opts.Lock = store
		closer = func() { store.Close() }
	}

	d, err := qdeploy.New(opts)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return d, closer, nil
}
