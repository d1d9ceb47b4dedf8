package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnr/restable/assets"
	"github.com/dnr/restable/common/cobrautil"
	"github.com/dnr/restable/nameindex"
	"github.com/dnr/restable/restable"
)

type loadConfig struct {
	apks     []string
	system   []string
	overlays []string
	config   string
	density  uint16
}

type queryConfig struct {
	defType    string
	defPackage string
	resolve    bool
}

func withLogger(c *cobra.Command) func(*cobra.Command) error {
	verbose := c.Flags().BoolP("verbose", "v", false, "log to stderr")
	return func(c *cobra.Command) error {
		log := zap.NewNop()
		if *verbose {
			var err error
			if log, err = zap.NewDevelopment(); err != nil {
				return err
			}
		}
		cobrautil.Store(c, log)
		return nil
	}
}

// withManager loads every input and stores the resulting AssetManager.
func withManager(c *cobra.Command) func(context.Context, *cobra.Command, *zap.Logger) error {
	var cfg loadConfig
	c.Flags().StringArrayVarP(&cfg.apks, "apk", "a", nil, "apk, table, or url to load (repeatable, later wins)")
	c.Flags().StringArrayVar(&cfg.system, "system", nil, "framework apk or table, loaded first")
	c.Flags().StringArrayVar(&cfg.overlays, "overlay", nil, "idmap of an overlay to load last")
	c.Flags().StringVarP(&cfg.config, "config", "c", "", "device configuration qualifiers, e.g. fr-night-xhdpi")
	c.Flags().Uint16Var(&cfg.density, "density", 0, "density override in dpi")

	return func(ctx context.Context, c *cobra.Command, log *zap.Logger) error {
		conf, err := restable.ParseConfig(cfg.config)
		if err != nil {
			return err
		}
		sys, err := assets.LoadAll(ctx, cfg.system, restable.LoadOptions{Logger: log, System: true})
		if err != nil {
			return err
		}
		apks, err := assets.LoadAll(ctx, cfg.apks, restable.LoadOptions{Logger: log})
		if err != nil {
			return err
		}
		list := append(sys, apks...)
		for _, o := range cfg.overlays {
			a, err := assets.LoadOverlay(ctx, o, restable.LoadOptions{Logger: log})
			if err != nil {
				return fmt.Errorf("overlay %s: %w", o, err)
			}
			list = append(list, a)
		}
		am := assets.New(assets.Options{Logger: log})
		am.SetApkAssets(list)
		am.SetConfiguration(conf)
		cobrautil.Store(c, am)
		cobrautil.Store(c, &cfg)
		return nil
	}
}

func withQuery(c *cobra.Command) *queryConfig {
	var q queryConfig
	c.Flags().StringVarP(&q.defType, "type", "t", "", "default type for names without one")
	c.Flags().StringVarP(&q.defPackage, "package", "p", "", "default package for names without one")
	c.Flags().BoolVarP(&q.resolve, "resolve", "r", false, "follow references")
	return &q
}

func withIndex(c *cobra.Command) func(*cobra.Command, *zap.Logger) error {
	path := c.Flags().String("db", "arsc-names.db", "name index database")
	return func(c *cobra.Command, log *zap.Logger) error {
		ix, err := nameindex.Open(*path, nameindex.Options{Logger: log})
		if err != nil {
			return err
		}
		cobrautil.Store(c, ix)
		// closed after the command runs
		c.PostRunE = cobrautil.ChainRunE(c.PostRunE, func(*cobra.Command, []string) error {
			return ix.Close()
		})
		return nil
	}
}

// parseResID accepts a numeric id or a resource name. Names without a
// package default to the last loaded non-overlay package.
func parseResID(am *assets.AssetManager, q *queryConfig, s string) (uint32, error) {
	if id, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(id), nil
	}
	defPackage := q.defPackage
	if defPackage == "" {
		defPackage = lastPackage(am)
	}
	return am.GetResourceID(s, q.defType, defPackage)
}

func lastPackage(am *assets.AssetManager) string {
	apks := am.ApkAssets()
	for i := len(apks) - 1; i >= 0; i-- {
		for _, pkg := range apks[i].Table().Packages() {
			if !pkg.IsOverlay() {
				return pkg.Name()
			}
		}
	}
	return ""
}
