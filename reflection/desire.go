package reflection

import (
	"fmt"
	"reflect"

	"github.com/centraunit/grapht/spi"
)

// Desire is the reflection-backed spi.Desire.
type Desire struct {
	typ   reflect.Type
	role  *spi.Role
	sat   spi.Satisfaction
	ex    *Extractor
	point string
}

var _ spi.Desire = (*Desire)(nil)

func (d *Desire) Type() reflect.Type { return d.typ }

func (d *Desire) Role() *spi.Role { return d.role }

func (d *Desire) Satisfaction() spi.Satisfaction { return d.sat }

// InjectionPoint describes where the desire was discovered, e.g. a struct
// field or constructor parameter. It is empty for root desires.
func (d *Desire) InjectionPoint() string { return d.point }

// Default falls back to the role's default instance or type, and then to
// the type's own default satisfaction.
func (d *Desire) Default() (spi.Desire, error) {
	if v, ok := d.role.DefaultInstance(); ok {
		s, err := NewInstanceSatisfaction(v)
		if err != nil {
			return nil, err
		}
		return d.Satisfy(s), nil
	}
	if dt := d.role.DefaultType(); dt != nil && dt != d.typ {
		return d.Restrict(dt), nil
	}
	if d.ex == nil {
		return nil, nil
	}
	s, err := d.ex.DefaultSatisfaction(d.typ)
	if err != nil || s == nil {
		return nil, err
	}
	return d.Satisfy(s), nil
}

func (d *Desire) Restrict(t reflect.Type) spi.Desire {
	return &Desire{typ: t, role: d.role, ex: d.ex, point: d.point}
}

func (d *Desire) Satisfy(s spi.Satisfaction) spi.Desire {
	return &Desire{typ: d.typ, role: d.role, sat: s, ex: d.ex, point: d.point}
}

func (d *Desire) Key() spi.DesireKey { return spi.KeyOf(d) }

func (d *Desire) at(point string) *Desire {
	d.point = point
	return d
}

func (d *Desire) String() string {
	s := d.typ.String()
	if d.role != nil {
		s = d.role.String() + " " + s
	}
	if d.sat != nil {
		s = fmt.Sprintf("%s => %s", s, d.sat)
	}
	return s
}
