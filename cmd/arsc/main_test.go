package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnr/restable/restable"
)

func writeTables(t *testing.T) (fw, app string) {
	dir := t.TempDir()

	b := restable.NewTableBuilder()
	p := b.AddPackage(restable.SysPackageID, "android")
	p.AddType(1, "attr")
	p.AddType(2, "style")
	p.AddValue(1, 0, "textSize", restable.Config{}, restable.Value{Type: restable.TypeIntDec})
	p.AddBag(2, 0, "Theme", restable.Config{}, 0, []restable.MapEntry{
		{Name: 0x01010000, Value: restable.Value{Type: restable.TypeIntDec, Data: 12}},
	})
	data, err := b.Build()
	require.NoError(t, err)
	fw = filepath.Join(dir, "framework.arsc")
	require.NoError(t, os.WriteFile(fw, data, 0644))

	b = restable.NewTableBuilder()
	p = b.AddPackage(restable.AppPackageID, "com.example.app")
	p.AddType(1, "string")
	p.AddType(2, "style")
	p.AddValue(1, 0, "hello", restable.Config{}, b.StringValue("Hello"))
	p.AddValue(1, 0, "hello", restable.Config{Language: [2]byte{'f', 'r'}}, b.StringValue("Bonjour"))
	p.SetSpecFlags(1, 0, restable.ConfigLocale)
	p.AddValue(1, 1, "alias", restable.Config{}, restable.Value{Type: restable.TypeReference, Data: 0x7f010000})
	p.AddBag(2, 0, "AppTheme", restable.Config{}, 0x01020000, []restable.MapEntry{
		{Name: 0x01010000, Value: restable.Value{Type: restable.TypeIntDec, Data: 14}},
	})
	data, err = b.Build()
	require.NoError(t, err)
	app = filepath.Join(dir, "resources.arsc")
	require.NoError(t, os.WriteFile(app, data, 0644))
	return
}

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGet(t *testing.T) {
	r := require.New(t)
	fw, app := writeTables(t)

	out, err := run(t, "get", "--system", fw, "-a", app, "string/hello", "0x7f010001")
	r.NoError(err)
	r.Contains(out, `com.example.app:string/hello = "Hello"`)
	r.Contains(out, "com.example.app:string/alias = @0x7f010000")

	out, err = run(t, "get", "--system", fw, "-a", app, "-c", "fr", "-r", "string/alias")
	r.NoError(err)
	r.Contains(out, `= "Bonjour" (fr)`)

	_, err = run(t, "get", "-a", app, "string/missing")
	r.Error(err)
}

func TestBagAndTheme(t *testing.T) {
	r := require.New(t)
	fw, app := writeTables(t)

	out, err := run(t, "bag", "--system", fw, "-a", app, "style/AppTheme")
	r.NoError(err)
	r.Contains(out, "android:attr/textSize = 14")

	out, err = run(t, "theme", "--system", fw, "-a", app, "0x01020000", "--attr", "android:textSize")
	r.NoError(err)
	r.Contains(out, "android:attr/textSize = 12")

	out, err = run(t, "locales", "--system", fw, "-a", app)
	r.NoError(err)
	r.Contains(out, "fr\n")
}

func TestIndex(t *testing.T) {
	r := require.New(t)
	fw, app := writeTables(t)
	db := filepath.Join(t.TempDir(), "names.db")

	out, err := run(t, "index", "build", "--db", db, "--system", fw, "-a", app)
	r.NoError(err)
	r.Contains(out, "indexed 5 names")

	out, err = run(t, "index", "lookup", "--db", db, "com.example.app:string/hello")
	r.NoError(err)
	r.Equal("0x7f010000 com.example.app:string/hello\n", out)

	out, err = run(t, "index", "list", "--db", db, "android:")
	r.NoError(err)
	r.Equal("android:attr/textSize\nandroid:style/Theme\n", out)

	out, err = run(t, "version")
	r.NoError(err)
	r.Contains(out, "restable")
}
