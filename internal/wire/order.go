package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

// EncodeOrder writes o as a JSON object.
func EncodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("price")
		encodeMoney(e, l.Price)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("totalAmount")
	encodeMoney(e, o.TotalAmount)
	e.FieldStart("paymentStatus")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("orderStatus")
	e.Str(string(o.Status))
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}

// EncodeOrders writes os as a JSON array.
func EncodeOrders(e *jx.Encoder, os []order.Order) {
	e.ArrStart()
	for _, o := range os {
		EncodeOrder(e, o)
	}
	e.ArrEnd()
}

// DecodeOrder reads an order written by EncodeOrder.
func DecodeOrder(d *jx.Decoder) (order.Order, error) {
	var o order.Order
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Str()
		case "userId":
			o.UserID, err = d.Str()
		case "lines":
			err = d.Arr(func(d *jx.Decoder) error {
				var l order.Line
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "productId":
						l.ProductID, err = d.Str()
					case "name":
						l.Name, err = d.Str()
					case "quantity":
						l.Quantity, err = decodeInt(d)
					case "price":
						l.Price, err = decodeMoney(d)
					default:
						return d.Skip()
					}
					return err
				}); err != nil {
					return err
				}
				o.Lines = append(o.Lines, l)
				return nil
			})
		case "totalAmount":
			o.TotalAmount, err = decodeMoney(d)
		case "paymentStatus":
			var s string
			s, err = d.Str()
			o.PaymentStatus = order.PaymentStatus(s)
		case "orderStatus":
			var s string
			s, err = d.Str()
			o.Status = order.Status(s)
		case "createdAt":
			o.CreatedAt, err = decodeTime(d)
		case "updatedAt":
			o.UpdatedAt, err = decodeTime(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return order.Order{}, errors.Wrap(err, "decode order")
	}
	return o, nil
}

// DecodePlaceOrder reads a checkout body:
//
//	{"userId": "...", "products": [{"productId": "1", "quantity": 2}]}
//
// Product ids may be strings or integers. Quantities must be integers; range
// checks are left to the order service.
func DecodePlaceOrder(d *jx.Decoder) (order.PlaceOrderRequest, error) {
	var req order.PlaceOrderRequest
	if err := requireObject(d); err != nil {
		return req, err
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "userId":
			id, err := decodeID(d)
			if err != nil {
				return fieldErr("userId", err)
			}
			req.UserID = id
			return nil
		case "products":
			if d.Next() != jx.Array {
				return fieldErr("products", errors.Errorf("expected array, got %s", d.Next()))
			}
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeCartLine(d)
				if err != nil {
					return err
				}
				req.Lines = append(req.Lines, l)
				return nil
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		return req, fieldErr("", err)
	}
	return req, nil
}

func decodeCartLine(d *jx.Decoder) (order.CartLine, error) {
	var l order.CartLine
	if d.Next() != jx.Object {
		return l, fieldErr("products", errors.Errorf("expected object, got %s", d.Next()))
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			l.ProductID, err = decodeID(d)
		case "quantity":
			l.Quantity, err = decodeInt(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return fieldErr("products[]."+key, err)
		}
		return nil
	})
	return l, err
}

// DecodeStatusUpdate reads {"orderStatus": "..."} and returns the raw value.
func DecodeStatusUpdate(d *jx.Decoder) (string, error) {
	var status string
	if err := requireObject(d); err != nil {
		return "", err
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "orderStatus" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return fieldErr(key, err)
		}
		status = s
		return nil
	}); err != nil {
		return "", fieldErr("", err)
	}
	return status, nil
}

// EncodeEvent writes an order event as published to subscribers.
func EncodeEvent(e *jx.Encoder, ev order.Event) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(ev.ID)
	e.FieldStart("type")
	e.Str(string(ev.Type))
	e.FieldStart("occurredAt")
	encodeTime(e, ev.OccurredAt)
	e.FieldStart("order")
	EncodeOrder(e, ev.Order)
	e.ObjEnd()
}

// OutboxRecord builds the outbox row for ev. Records are keyed by order id.
func OutboxRecord(id int64, ev order.Event) outbox.Record {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	EncodeEvent(e, ev)

	return outbox.Record{
		ID:        id,
		EventID:   ev.ID,
		Type:      string(ev.Type),
		Key:       ev.Order.ID,
		Payload:   append([]byte(nil), e.Bytes()...),
		CreatedAt: ev.OccurredAt,
	}
}
