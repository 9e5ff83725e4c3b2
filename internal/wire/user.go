package wire

import (
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
)

// EncodeUser writes u without its password hash.
func EncodeUser(e *jx.Encoder, u user.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("name")
	e.Str(u.Name)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("createdAt")
	encodeTime(e, u.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, u.UpdatedAt)
	e.ObjEnd()
}

// EncodeUsers writes us as a JSON array.
func EncodeUsers(e *jx.Encoder, us []user.User) {
	e.ArrStart()
	for _, u := range us {
		EncodeUser(e, u)
	}
	e.ArrEnd()
}

// DecodeCreateUser reads a registration body.
func DecodeCreateUser(d *jx.Decoder) (user.CreateRequest, error) {
	var req user.CreateRequest
	if err := requireObject(d); err != nil {
		return req, err
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			req.Name, err = d.Str()
		case "email":
			req.Email, err = d.Str()
		case "password":
			req.Password, err = d.Str()
		default:
			return d.Skip()
		}
		if err != nil {
			return fieldErr(key, err)
		}
		return nil
	}); err != nil {
		return req, fieldErr("", err)
	}
	return req, nil
}
