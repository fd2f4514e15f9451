package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/calendar"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func invalidField(key string, format string, args ...any) error {
	return status.Error(codes.InvalidArgument, key+": "+fmt.Sprintf(format, args...))
}

func lookupField(req *structpb.Struct, key string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[key]
	return v, ok
}

func isNull(v *structpb.Value) bool {
	_, ok := v.GetKind().(*structpb.Value_NullValue)
	return ok || v.GetKind() == nil
}

func toInt64(key string, v *structpb.Value) (int64, error) {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, invalidField(key, "must be an integer")
		}
		return int64(f), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(kind.StringValue), 10, 64)
		if err != nil {
			return 0, invalidField(key, "must be an integer")
		}
		return n, nil
	default:
		return 0, invalidField(key, "must be an integer")
	}
}

// requireInt64 は必須の整数フィールドを取得します。
func requireInt64(req *structpb.Struct, key string) (int64, error) {
	v, ok := lookupField(req, key)
	if !ok || isNull(v) {
		return 0, invalidField(key, "is required")
	}
	return toInt64(key, v)
}

// optionalInt64 は任意の整数フィールドを取得します。set はキーが存在したかを返し、null は (nil, true) です。
func optionalInt64(req *structpb.Struct, key string) (value *int64, set bool, err error) {
	v, ok := lookupField(req, key)
	if !ok {
		return nil, false, nil
	}
	if isNull(v) {
		return nil, true, nil
	}
	n, err := toInt64(key, v)
	if err != nil {
		return nil, true, err
	}
	return &n, true, nil
}

func requireInt(req *structpb.Struct, key string) (int, error) {
	n, err := requireInt64(req, key)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, invalidField(key, "out of range")
	}
	return int(n), nil
}

func optionalInt(req *structpb.Struct, key string) (*int, error) {
	n, _, err := optionalInt64(req, key)
	if err != nil || n == nil {
		return nil, err
	}
	if *n > math.MaxInt32 || *n < math.MinInt32 {
		return nil, invalidField(key, "out of range")
	}
	v := int(*n)
	return &v, nil
}

// optionalString は任意の文字列フィールドを取得します。set の意味は optionalInt64 と同じです。
func optionalString(req *structpb.Struct, key string) (value *string, set bool, err error) {
	v, ok := lookupField(req, key)
	if !ok {
		return nil, false, nil
	}
	if isNull(v) {
		return nil, true, nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, true, invalidField(key, "must be a string")
	}
	str := s.StringValue
	return &str, true, nil
}

func requireDate(req *structpb.Struct, key string) (calendar.Date, error) {
	d, err := optionalDate(req, key)
	if err != nil {
		return calendar.Date{}, err
	}
	if d == nil {
		return calendar.Date{}, invalidField(key, "is required")
	}
	return *d, nil
}

func optionalDate(req *structpb.Struct, key string) (*calendar.Date, error) {
	raw, _, err := optionalString(req, key)
	if err != nil || raw == nil {
		return nil, err
	}
	d, err := calendar.ParseDate(*raw)
	if err != nil {
		return nil, invalidField(key, "must be a date in YYYY-MM-DD format")
	}
	return &d, nil
}
