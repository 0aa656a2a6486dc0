package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonColumnValue(v interface{}) (driver.Value, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func jsonColumnScan(v interface{}, dest interface{}) error {
	if v == nil {
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	if jsonString == "" {
		return nil
	}
	return json.Unmarshal([]byte(jsonString), dest)
}
