package spool

// In-package polymorphic fixtures.

type shape interface {
	Object
	Area() float64
}

type square struct {
	Side float64
}

func (*square) TypeID() TypeID                      { return 10 }
func (s *square) EncodeSelf(e *Encoder) error       { return e.Fields(s) }
func (s *square) DecodeSelf(d *Decoder) error       { return d.Fields(s) }
func (s *square) CopyFrom(c *Copier, src any) error { return c.Fields(s, src) }
func (s *square) Area() float64                     { return s.Side * s.Side }

type label struct {
	Text  string
	Shape shape
}

func (*label) TypeID() TypeID                      { return 11 }
func (l *label) EncodeSelf(e *Encoder) error       { return e.Fields(l) }
func (l *label) DecodeSelf(d *Decoder) error       { return d.Fields(l) }
func (l *label) CopyFrom(c *Copier, src any) error { return c.Fields(l, src) }
func (l *label) Area() float64                     { return 0 }

// rival claims the id of square.
type rival struct {
	Side int32
}

func (*rival) TypeID() TypeID                      { return 10 }
func (r *rival) EncodeSelf(e *Encoder) error       { return e.Fields(r) }
func (r *rival) DecodeSelf(d *Decoder) error       { return d.Fields(r) }
func (r *rival) CopyFrom(c *Copier, src any) error { return c.Fields(r, src) }

func shapeRegistry() *Registry {
	return MustRegistry(Type[square](), Type[label]())
}

// blank claims the reserved id 0.
type blank struct{}

func (*blank) TypeID() TypeID                      { return 0 }
func (b *blank) EncodeSelf(e *Encoder) error       { return nil }
func (b *blank) DecodeSelf(d *Decoder) error       { return nil }
func (b *blank) CopyFrom(c *Copier, src any) error { return nil }

// vast claims an id past the registry bound.
type vast struct{}

func (*vast) TypeID() TypeID                      { return maxTypeID }
func (v *vast) EncodeSelf(e *Encoder) error       { return nil }
func (v *vast) DecodeSelf(d *Decoder) error       { return nil }
func (v *vast) CopyFrom(c *Copier, src any) error { return nil }
