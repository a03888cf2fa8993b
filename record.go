package logshard

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

// Recognized record fields. Every other field is kept only as part of the
// raw line.
const (
	fieldServiceName = "ServiceName"
	fieldStartUTC    = "StartUTC"
)

var parserPool fastjson.ParserPool

// record holds the routing keys of one parsed line.
type record struct {
	service string    // empty when ServiceName is absent or null
	start   time.Time // zero when StartUTC is absent or empty
}

// parseRecord extracts the routing keys from a JSON line. The returned
// error is a *RecordError carrying the matching kind.
func parseRecord(line []byte) (record, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	var rec record
	v, err := p.ParseBytes(line)
	if err != nil {
		return rec, &RecordError{Kind: ErrInvalidJSON, Line: line, Err: err}
	}
	if v.Type() != fastjson.TypeObject {
		return rec, &RecordError{Kind: ErrInvalidRecord, Line: line,
			Err: fmt.Errorf("expected a JSON object, got %s", v.Type())}
	}

	// a repeated key takes its last value
	var sv, tv *fastjson.Value
	v.GetObject().Visit(func(key []byte, val *fastjson.Value) {
		switch string(key) {
		case fieldServiceName:
			sv = val
		case fieldStartUTC:
			tv = val
		}
	})

	if sv != nil && sv.Type() != fastjson.TypeNull {
		b, err := sv.StringBytes()
		if err != nil {
			return rec, &RecordError{Kind: ErrInvalidRecord, Line: line,
				Err: fmt.Errorf("%s: %w", fieldServiceName, err)}
		}
		if !validServiceName(string(b)) {
			return rec, &RecordError{Kind: ErrInvalidRecord, Line: line,
				Err: fmt.Errorf("%s %q is not a valid folder name", fieldServiceName, b)}
		}
		rec.service = string(b)
	}

	if tv != nil && !isEmptyValue(tv) {
		b, err := tv.StringBytes()
		if err != nil {
			return rec, &RecordError{Kind: ErrInvalidTimestamp, Line: line,
				Err: fmt.Errorf("%s: %w", fieldStartUTC, err)}
		}
		t, err := parseTimestamp(string(b))
		if err != nil {
			return rec, &RecordError{Kind: ErrInvalidTimestamp, Line: line, Err: err}
		}
		rec.start = t
	}

	return rec, nil
}

// isEmptyValue reports whether v is null, false, zero, or an empty string,
// array or object. Such a StartUTC counts as missing.
func isEmptyValue(v *fastjson.Value) bool {
	switch v.Type() {
	case fastjson.TypeNull, fastjson.TypeFalse:
		return true
	case fastjson.TypeNumber:
		return v.GetFloat64() == 0
	case fastjson.TypeString:
		return len(v.GetStringBytes()) == 0
	case fastjson.TypeArray:
		return len(v.GetArray()) == 0
	case fastjson.TypeObject:
		return v.GetObject().Len() == 0
	}
	return false
}
