// Package bean converts open records into typed values.
package bean

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	apperrors "github.com/tree-builder/pkg/errors"
	"github.com/tree-builder/pkg/model"
	"github.com/tree-builder/pkg/tree"
)

// NameKey is the open record key copied into Record.Name.
const NameKey = "name"

// Decode decodes every row into a new T, matching keys against the given
// struct tag. An empty tag means "json". Values are converted weakly, so a
// numeric string fills an int field and RFC 3339 strings fill time.Time.
func Decode[T any](rows []map[string]any, tag string) ([]*T, error) {
	if tag == "" {
		tag = "json"
	}

	out := make([]*T, 0, len(rows))
	for i, row := range rows {
		v := new(T)
		if err := decodeInto(row, v, tag); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParseError, fmt.Sprintf("failed to decode record %d", i), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ToRecords decodes rows into model.Record values. The identifier and parent
// values come from the keys named by names, NameKey fills Name and every other
// key except the children key is kept in Attrs.
func ToRecords(rows []map[string]any, names tree.FieldNames) ([]*model.Record, error) {
	names = names.WithDefaults()

	out := make([]*model.Record, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			return nil, apperrors.Newf(apperrors.CodeInvalidInput, "record %d is nil", i)
		}

		attrs := make(map[string]any, len(row))
		for k, v := range row {
			switch k {
			case names.ID, names.Parent, names.Children, NameKey:
				continue
			}
			attrs[k] = v
		}
		shaped := map[string]any{
			"id":     row[names.ID],
			"parent": row[names.Parent],
			"name":   row[NameKey],
		}
		if len(attrs) > 0 {
			shaped["attrs"] = attrs
		}

		rec := &model.Record{}
		if err := decodeInto(shaped, rec, "mapstructure"); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParseError, fmt.Sprintf("failed to decode record %d", i), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeInto(input map[string]any, result any, tag string) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          tag,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
