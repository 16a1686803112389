// control/config.go
// Author: momentics <momentics@gmail.com>
//
// YAML configuration loading. The caller passes a struct already holding
// defaults; keys present in the file overwrite them and unknown keys fail.

package control

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig decodes the YAML file at path into dst.
// An empty file leaves dst untouched.
func LoadConfig(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("control: read config: %w", err)
	}
	if err := DecodeConfig(bytes.NewReader(data), dst); err != nil {
		return fmt.Errorf("control: %s: %w", path, err)
	}
	return nil
}

// DecodeConfig decodes YAML from r into dst, rejecting unknown fields.
func DecodeConfig(r io.Reader, dst any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
