package restable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDynamicRefTableLookupID(t *testing.T) {
	r := require.New(t)
	d := NewDynamicRefTable(0x05, false)
	d.AddEntry("com.example.lib", 0x02)
	r.NoError(d.AddMapping("com.example.lib", 0x09))
	r.True(errors.Is(d.AddMapping("com.example.nope", 0x0a), ErrDynamicRef))
	r.Equal([]string{"com.example.lib"}, d.Names())

	for in, want := range map[uint32]uint32{
		0x7f010000: 0x7f010000, // app passes through
		0x01010000: 0x01010000, // framework is fixed
		0x00020003: 0x05020003, // own shared library package
		0x02030004: 0x09030004, // remapped library
	} {
		got, err := d.LookupResourceID(in)
		r.NoError(err)
		r.Equal(want, got, "%#x", in)
	}
	_, err := d.LookupResourceID(0x03010000)
	r.True(errors.Is(err, ErrDynamicRef))
}

func TestDynamicRefTableAppAsLib(t *testing.T) {
	r := require.New(t)
	d := NewDynamicRefTable(0x04, true)
	got, err := d.LookupResourceID(0x7f010002)
	r.NoError(err)
	r.EqualValues(0x04010002, got)

	v, err := d.LookupResourceValue(Value{Type: TypeReference, Data: 0x7f010002})
	r.NoError(err)
	r.Equal(Value{Type: TypeReference, Data: 0x04010002}, v)
}

func TestDynamicRefTableLookupValue(t *testing.T) {
	r := require.New(t)
	d := NewDynamicRefTable(0x03, false)
	d.AddEntry("lib", 0x02)
	r.NoError(d.AddMapping("lib", 0x06))

	for _, tc := range []struct{ in, want Value }{
		{Value{TypeDynamicReference, 0x02010000}, Value{TypeReference, 0x06010000}},
		{Value{TypeDynamicAttribute, 0x00010001}, Value{TypeAttribute, 0x03010001}},
		{Value{TypeReference, 0x02010000}, Value{TypeReference, 0x02010000}},
		{Value{TypeAttribute, 0x7f010000}, Value{TypeAttribute, 0x7f010000}},
		{Value{TypeIntDec, 0x02010000}, Value{TypeIntDec, 0x02010000}},
		{Value{TypeDynamicReference, 0}, Value{TypeReference, 0}},
	} {
		got, err := d.LookupResourceValue(tc.in)
		r.NoError(err)
		r.Equal(tc.want, got)
	}

	_, err := d.LookupResourceValue(Value{TypeDynamicReference, 0x0a010000})
	r.True(errors.Is(err, ErrDynamicRef))
}

func TestDynamicRefTableAddMappings(t *testing.T) {
	r := require.New(t)
	a := NewDynamicRefTable(0x02, false)
	a.AddEntry("x", 0x02)
	b := NewDynamicRefTable(0x03, false)
	b.AddEntry("y", 0x03)
	b.AddMappingByID(0x03, 0x08)
	r.NoError(a.AddMappings(b))
	r.Equal(map[string]uint8{"x": 2, "y": 3}, a.Entries())
	got, err := a.LookupResourceID(0x03000001)
	r.NoError(err)
	r.EqualValues(0x08000001, got)

	c := NewDynamicRefTable(0x04, false)
	c.AddEntry("x", 0x05)
	r.Error(a.AddMappings(c))
}
