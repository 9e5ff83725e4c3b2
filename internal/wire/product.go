package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

// EncodeProduct writes p as a JSON object.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image")
	e.Str(p.Image)
	if !p.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		encodeTime(e, p.CreatedAt)
		e.FieldStart("updatedAt")
		encodeTime(e, p.UpdatedAt)
	}
	e.ObjEnd()
}

// EncodeProducts writes ps as a JSON array.
func EncodeProducts(e *jx.Encoder, ps []product.Product) {
	e.ArrStart()
	for _, p := range ps {
		EncodeProduct(e, p)
	}
	e.ArrEnd()
}

// DecodeProduct reads a product creation body. Only the known fields are
// read; id is optional.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	if err := requireObject(d); err != nil {
		return p, err
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeID(d)
		case "name":
			p.Name, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = decodeMoney(d)
		case "stock":
			p.Stock, err = decodeInt(d)
		case "category":
			p.Category, err = d.Str()
		case "image":
			p.Image, err = d.Str()
		default:
			return d.Skip()
		}
		if err != nil {
			return fieldErr(key, err)
		}
		return nil
	}); err != nil {
		return p, fieldErr("", err)
	}
	return p, nil
}

// DecodeProducts reads a JSON array of products, such as the seed catalog.
func DecodeProducts(d *jx.Decoder) ([]product.Product, error) {
	var out []product.Product
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

// DecodeProductUpdate reads a partial product edit. Absent fields stay nil.
func DecodeProductUpdate(d *jx.Decoder) (product.Update, error) {
	var u product.Update
	if err := requireObject(d); err != nil {
		return u, err
	}
	str := func(d *jx.Decoder, dst **string) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		*dst = &s
		return nil
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			err = str(d, &u.Name)
		case "description":
			err = str(d, &u.Description)
		case "category":
			err = str(d, &u.Category)
		case "image":
			err = str(d, &u.Image)
		case "price":
			v, derr := decodeMoney(d)
			if derr == nil {
				u.Price = &v
			}
			err = derr
		case "stock":
			v, derr := decodeInt(d)
			if derr == nil {
				u.Stock = &v
			}
			err = derr
		default:
			return d.Skip()
		}
		if err != nil {
			return fieldErr(key, err)
		}
		return nil
	}); err != nil {
		return u, fieldErr("", err)
	}
	return u, nil
}
