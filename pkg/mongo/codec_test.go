package mongo

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/ajcoder25/bookverse/pkg/models"
)

func encode(t *testing.T, v any) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	enc := bson.NewEncoder(bson.NewDocumentWriter(buf))
	enc.SetRegistry(newRegistry())
	require.NoError(t, enc.Encode(v))
	return buf.Bytes()
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	dec := bson.NewDecoder(bson.NewDocumentReader(bytes.NewReader(data)))
	dec.SetRegistry(newRegistry())
	require.NoError(t, dec.Decode(v))
}

func TestDecimalCodec_StoresDecimal128(t *testing.T) {
	line := models.CartLine{ItemKey: "k", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}

	raw := bson.Raw(encode(t, line))
	price := raw.Lookup("unit_price")
	assert.Equal(t, bson.TypeDecimal128, price.Type)

	var got models.CartLine
	decode(t, raw, &got)
	assert.True(t, line.UnitPrice.Equal(got.UnitPrice))
	assert.True(t, decimal.RequireFromString("25").Equal(got.Subtotal()))
}

func TestDecimalCodec_AcceptsLegacyNumbers(t *testing.T) {
	cases := map[string]any{
		"double": 9.99,
		"int32":  int32(300),
		"int64":  int64(300),
		"string": "4.25",
	}
	want := map[string]string{"double": "9.99", "int32": "300", "int64": "300", "string": "4.25"}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := bson.Marshal(bson.D{{Key: "item_key", Value: "k"}, {Key: "unit_price", Value: value}})
			require.NoError(t, err)

			var got models.CartLine
			decode(t, data, &got)
			assert.True(t, decimal.RequireFromString(want[name]).Equal(got.UnitPrice), got.UnitPrice.String())
		})
	}
}
