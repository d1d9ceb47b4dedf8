package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dnr/restable/assets"
	"github.com/dnr/restable/common"
	"github.com/dnr/restable/common/cobrautil"
	"github.com/dnr/restable/nameindex"
	"github.com/dnr/restable/restable"
)

func formatValue(am *assets.AssetManager, v assets.ResolvedValue) string {
	var pool *restable.StringPool
	if apks := am.ApkAssets(); v.Cookie >= 0 && int(v.Cookie) < len(apks) {
		pool = apks[v.Cookie].Table().StringPool()
	}
	return v.Format(pool)
}

func nameOf(am *assets.AssetManager, resid uint32) string {
	if n, err := am.GetResourceName(resid); err == nil {
		return n.String()
	}
	return fmt.Sprintf("%#08x", resid)
}

func dump(c *cobra.Command, am *assets.AssetManager, cfg *loadConfig) error {
	out := c.OutOrStdout()
	for _, a := range am.ApkAssets() {
		fmt.Fprintf(out, "# %s\n", a.Path())
		for _, pkg := range a.Table().Packages() {
			if pkg.IsOverlay() {
				continue
			}
			rt := am.GetAssignedPackageID(pkg)
			pkg.ForEachResource(func(resid uint32) {
				resid = restable.FixPackageID(resid, rt)
				fmt.Fprintf(out, "%#08x %s", resid, nameOf(am, resid))
				if bag, err := am.GetBag(resid); err == nil {
					fmt.Fprintf(out, " bag(%d)\n", len(bag.Entries))
				} else if v, err := am.GetResource(resid, false, cfg.density); err == nil {
					fmt.Fprintf(out, " = %s\n", formatValue(am, v))
				} else {
					fmt.Fprintf(out, " ! %v\n", err)
				}
			})
		}
	}
	return nil
}

func get(c *cobra.Command, args []string, am *assets.AssetManager, cfg *loadConfig, q *queryConfig) error {
	out := c.OutOrStdout()
	for _, arg := range args {
		resid, err := parseResID(am, q, arg)
		if err != nil {
			return err
		}
		v, err := am.GetResource(resid, true, cfg.density)
		if err == nil && q.resolve {
			v, err = am.ResolveReference(v)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		fmt.Fprintf(out, "%s = %s (%s)\n", nameOf(am, resid), formatValue(am, v), v.Config)
	}
	return nil
}

func bag(c *cobra.Command, args []string, am *assets.AssetManager, q *queryConfig) error {
	out := c.OutOrStdout()
	for _, arg := range args {
		resid, err := parseResID(am, q, arg)
		if err != nil {
			return err
		}
		b, err := am.GetBag(resid)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		fmt.Fprintf(out, "%s:\n", nameOf(am, resid))
		for _, e := range b.Entries {
			v := assets.ResolvedValue{Value: e.Value, Cookie: e.Cookie}
			if q.resolve {
				if rv, err := am.ResolveReference(v); err == nil {
					v = rv
				}
			}
			fmt.Fprintf(out, "  %s = %s\n", nameOf(am, e.Key), formatValue(am, v))
		}
	}
	return nil
}

func name(c *cobra.Command, args []string, am *assets.AssetManager, q *queryConfig) error {
	out := c.OutOrStdout()
	for _, arg := range args {
		resid, err := parseResID(am, q, arg)
		if err != nil {
			return err
		}
		n, err := am.GetResourceName(resid)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		fmt.Fprintf(out, "%#08x %s\n", resid, n)
	}
	return nil
}

type themeAttrs []string

func withThemeAttrs(c *cobra.Command) *themeAttrs {
	var a themeAttrs
	c.Flags().StringArrayVar((*[]string)(&a), "attr", nil, "attribute to look up (repeatable)")
	return &a
}

func theme(c *cobra.Command, args []string, am *assets.AssetManager, q *queryConfig, attrs *themeAttrs) error {
	out := c.OutOrStdout()
	th := am.NewTheme()
	for _, arg := range args {
		force := strings.HasPrefix(arg, "!")
		resid, err := parseResID(am, q, strings.TrimPrefix(arg, "!"))
		if err != nil {
			return err
		}
		if err := th.ApplyStyle(resid, force); err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
	}
	for _, a := range *attrs {
		resid, err := parseResID(am, &queryConfig{defType: "attr", defPackage: q.defPackage}, a)
		if err != nil {
			return err
		}
		v, err := th.ResolveAttributeReference(assets.ResolvedValue{
			Value: restable.Value{Type: restable.TypeAttribute, Data: resid},
		})
		if common.IsNotFound(err) {
			fmt.Fprintf(out, "%s unset\n", nameOf(am, resid))
			continue
		} else if err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		fmt.Fprintf(out, "%s = %s\n", nameOf(am, resid), formatValue(am, v))
	}
	fmt.Fprintf(out, "changing configurations %#x\n", th.ChangingConfigurations())
	return nil
}

type listFlags struct {
	excludeSystem bool
	excludeMipmap bool
	merge         bool
}

func withListFlags(c *cobra.Command) *listFlags {
	var f listFlags
	c.Flags().BoolVar(&f.excludeSystem, "no-system", false, "skip framework tables")
	c.Flags().BoolVar(&f.excludeMipmap, "no-mipmap", false, "skip mipmap types")
	c.Flags().BoolVar(&f.merge, "merge", false, "merge equivalent locales")
	return &f
}

func locales(c *cobra.Command, am *assets.AssetManager, f *listFlags) error {
	for _, l := range am.GetResourceLocales(f.excludeSystem, f.merge) {
		if l == "" {
			l = "(default)"
		}
		fmt.Fprintln(c.OutOrStdout(), l)
	}
	return nil
}

func configs(c *cobra.Command, am *assets.AssetManager, f *listFlags) error {
	for _, cf := range am.GetResourceConfigurations(f.excludeSystem, f.excludeMipmap) {
		s := cf.String()
		if s == "" {
			s = "(default)"
		}
		fmt.Fprintln(c.OutOrStdout(), s)
	}
	return nil
}

func cat(c *cobra.Command, args []string, am *assets.AssetManager) error {
	for _, arg := range args {
		var b []byte
		var err error
		if ck, path, ok := strings.Cut(arg, ":"); ok {
			var n int
			if n, err = strconv.Atoi(ck); err != nil {
				return fmt.Errorf("bad cookie in %q", arg)
			}
			b, err = am.OpenNonAsset(assets.Cookie(n), path)
		} else {
			b, err = am.Open(arg)
		}
		if err != nil {
			return err
		}
		if _, err := c.OutOrStdout().Write(b); err != nil {
			return err
		}
	}
	return nil
}

func indexBuild(c *cobra.Command, am *assets.AssetManager, ix *nameindex.Index) error {
	n, err := ix.Rebuild(am)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "indexed %d names\n", n)
	return nil
}

func indexLookup(c *cobra.Command, args []string, ix *nameindex.Index) error {
	for _, arg := range args {
		resid, err := ix.Lookup(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "%#08x %s\n", resid, arg)
	}
	return nil
}

func indexList(c *cobra.Command, args []string, ix *nameindex.Index) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	names, err := ix.Names(prefix)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(c.OutOrStdout(), n)
	}
	return nil
}

func version(c *cobra.Command) error {
	_, err := io.WriteString(c.OutOrStdout(), common.Version+"\n")
	return err
}

func newRoot() *cobra.Command {
	return cobrautil.Cmd(
		&cobra.Command{
			Use:          "arsc",
			Short:        "arsc - query Android compiled resource tables",
			SilenceUsage: true,
		},
		cobrautil.Cmd(
			&cobra.Command{Use: "version", Short: "print version", Args: cobra.NoArgs},
			version,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "dump", Short: "print every resource and its value", Args: cobra.NoArgs},
			withLogger, withManager, dump,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "get <id|name>...", Short: "print resource values", Args: cobra.MinimumNArgs(1)},
			withLogger, withManager, withQuery, get,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "bag <id|name>...", Short: "print resolved bags", Args: cobra.MinimumNArgs(1)},
			withLogger, withManager, withQuery, bag,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "name <id|name>...", Short: "print resource names", Args: cobra.MinimumNArgs(1)},
			withLogger, withManager, withQuery, name,
		),
		cobrautil.Cmd(
			&cobra.Command{
				Use:   "theme [!]<style>... --attr <attr>",
				Short: "apply styles in order and look up attributes; ! forces",
				Args:  cobra.MinimumNArgs(1),
			},
			withLogger, withManager, withQuery, withThemeAttrs, theme,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "locales", Short: "list locales", Args: cobra.NoArgs},
			withLogger, withManager, withListFlags, locales,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "configs", Short: "list configurations", Args: cobra.NoArgs},
			withLogger, withManager, withListFlags, configs,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "cat [cookie:]<path>...", Short: "print asset contents", Args: cobra.MinimumNArgs(1)},
			withLogger, withManager, cat,
		),
		cobrautil.Cmd(
			&cobra.Command{Use: "index", Short: "persistent name index"},
			cobrautil.Cmd(
				&cobra.Command{Use: "build", Short: "rebuild the index from the loaded tables", Args: cobra.NoArgs},
				withLogger, withManager, withIndex, indexBuild,
			),
			cobrautil.Cmd(
				&cobra.Command{Use: "lookup <name>...", Short: "look up ids by name", Args: cobra.MinimumNArgs(1)},
				withLogger, withIndex, indexLookup,
			),
			cobrautil.Cmd(
				&cobra.Command{Use: "list [prefix]", Short: "list indexed names", Args: cobra.MaximumNArgs(1)},
				withLogger, withIndex, indexList,
			),
		),
	)
}

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
