package json

import (
	"fmt"
	"strconv"
)

func Uint(key string, dict map[string]interface{}) uint64 {
	curVal, curValOk := dict[key]
	if !curValOk {
		curVal = 0
	}
	f64, f64OK := curVal.(float64)
	if f64OK && f64 > 0 {
		return uint64(f64)
	}
	return 0
}

// Float returns the numeric value at key and whether a number was present.
func Float(key string, dict map[string]interface{}) (float64, bool) {
	curVal, curValOk := dict[key]
	if !curValOk {
		return 0, false
	}
	f64, f64OK := curVal.(float64)
	return f64, f64OK
}

// FloatSlice returns the array of numbers at key. A missing key returns a nil
// slice, any non-numeric element is an error.
func FloatSlice(key string, dict map[string]interface{}) ([]float64, error) {
	curVal, curValOk := dict[key]
	if !curValOk {
		return nil, nil
	}
	typedVal, typedValOk := curVal.([]interface{})
	if !typedValOk {
		return nil, fmt.Errorf("invalid %s specified: %v. Only arrays of float64 are supported", key, curVal)
	}
	floatVals := make([]float64, 0, len(typedVal))
	for i := 0; i != len(typedVal); i++ {
		castFloat, castFloatOK := typedVal[i].(float64)
		if !castFloatOK {
			return nil, fmt.Errorf("invalid %s element: %v. Only arrays of float64 are supported", key, typedVal[i])
		}
		floatVals = append(floatVals, castFloat)
	}
	return floatVals, nil
}

func String(key string, dict map[string]interface{}) string {
	curVal, curValOk := dict[key]
	if !curValOk {
		curVal = ""
	}
	strVal, _ := curVal.(string)
	return strVal
}

func Boolean(key string, dict map[string]interface{}) bool {
	// By default, an empty string is false
	boolVal := false
	curVal, curValOk := dict[key]
	if !curValOk {
		curVal = ""
	}
	boolVal, _ = strconv.ParseBool(fmt.Sprintf("%v", curVal))
	return boolVal
}
