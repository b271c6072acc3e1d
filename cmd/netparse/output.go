package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

var outputFormat string

// write renders x as JSON or YAML.
func write(out io.Writer, x interface{}) error {
	var (
		bs  []byte
		err error
	)
	switch outputFormat {
	case "json":
		bs, err = json.MarshalIndent(x, "", "  ")
		if err == nil {
			bs = append(bs, '\n')
		}
	case "yaml", "yml":
		bs, err = yaml.Marshal(x)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", outputFormat)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(bs)
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format (json or yaml)")
}
