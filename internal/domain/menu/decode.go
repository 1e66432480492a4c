package menu

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Decode parses a catalog document:
//
//	{
//	  "extras": [{"id": "extra-cheese", "name": "Queijo Extra", "price": 3.50}],
//	  "categories": [
//	    {"key": "pizza", "title": "Pizzas", "entries": [
//	      {"id": "pizza-1", "name": "Margherita", "price": 18.99, "extras": ["extra-cheese"]}
//	    ]}
//	  ]
//	}
//
// Entry extras are either inline objects or references to the shared
// top-level "extras" list. Shared extras must be declared before the
// categories that use them. The result is validated with Validate.
func Decode(data []byte) ([]Category, error) {
	var (
		shared     = make(map[string]Extra)
		categories []Category
	)
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "extras":
			return d.Arr(func(d *jx.Decoder) error {
				x, err := decodeExtra(d)
				if err != nil {
					return err
				}
				shared[x.ID] = x
				return nil
			})
		case "categories":
			return d.Arr(func(d *jx.Decoder) error {
				c, err := decodeCategory(d, shared)
				if err != nil {
					return err
				}
				categories = append(categories, c)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	if err := Validate(categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func decodeCategory(d *jx.Decoder, shared map[string]Extra) (Category, error) {
	var c Category
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "key":
			c.Key, err = d.Str()
		case "title":
			c.Title, err = d.Str()
		case "entries":
			err = d.Arr(func(d *jx.Decoder) error {
				e, err := decodeEntry(d, shared)
				if err != nil {
					return err
				}
				c.Entries = append(c.Entries, e)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return Category{}, errors.Wrapf(err, "category %q", c.Key)
	}
	if c.Title == "" {
		c.Title = c.Key
	}
	for i := range c.Entries {
		if c.Entries[i].Category == "" {
			c.Entries[i].Category = c.Key
		}
	}
	return c, nil
}

func decodeEntry(d *jx.Decoder, shared map[string]Extra) (Entry, error) {
	var e Entry
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			e.ID, err = d.Str()
		case "name":
			e.Name, err = d.Str()
		case "description":
			e.Description, err = d.Str()
		case "price":
			e.Price, err = decodeDecimal(d)
		case "category":
			e.Category, err = d.Str()
		case "popular":
			e.Popular, err = d.Bool()
		case "image":
			e.Image, err = d.Str()
		case "extras":
			err = d.Arr(func(d *jx.Decoder) error {
				if d.Next() == jx.String {
					id, err := d.Str()
					if err != nil {
						return err
					}
					x, ok := shared[id]
					if !ok {
						return errors.Errorf("unknown shared extra %q", id)
					}
					e.Extras = append(e.Extras, x)
					return nil
				}
				x, err := decodeExtra(d)
				if err != nil {
					return err
				}
				e.Extras = append(e.Extras, x)
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return Entry{}, errors.Wrapf(err, "entry %q", e.ID)
	}
	return e, nil
}

func decodeExtra(d *jx.Decoder) (Extra, error) {
	var x Extra
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			x.ID, err = d.Str()
		case "name":
			x.Name, err = d.Str()
		case "price":
			x.Price, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return Extra{}, errors.Wrapf(err, "extra %q", x.ID)
	}
	return x, nil
}

// decodeDecimal accepts both JSON numbers and numeric strings so that
// prices never pass through float64.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(string(n))
}
