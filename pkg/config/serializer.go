package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v2"
)

// Serializer 配置文件编解码。
// GetFileExts 的第一个扩展名用于按默认路径查找。
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	GetFileExts() []string
	GetName() string
}

const defaultIndent = "  "

// YAMLSerializer 默认拒绝未知字段，配置里的拼写错误会在加载时暴露
type YAMLSerializer struct {
	AllowUnknownFields bool
}

func (y *YAMLSerializer) Marshal(v interface{}) ([]byte, error) {
	return yaml.Marshal(v)
}

func (y *YAMLSerializer) Unmarshal(data []byte, v interface{}) error {
	if y.AllowUnknownFields {
		return yaml.Unmarshal(data, v)
	}
	return yaml.UnmarshalStrict(data, v)
}

func (y *YAMLSerializer) GetFileExts() []string { return []string{".yml", ".yaml"} }
func (y *YAMLSerializer) GetName() string       { return "yaml" }

// JSONSerializer 与 YAML 一致，默认拒绝未知字段。
// Indent 为空时使用两个空格。
type JSONSerializer struct {
	AllowUnknownFields bool
	Indent             string
}

func (j *JSONSerializer) Marshal(v interface{}) ([]byte, error) {
	indent := j.Indent
	if indent == "" {
		indent = defaultIndent
	}
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (j *JSONSerializer) Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if !j.AllowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	// 只允许一个顶层值
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

func (j *JSONSerializer) GetFileExts() []string { return []string{".json"} }
func (j *JSONSerializer) GetName() string       { return "json" }

// INISerializer 一级结构体字段对应分区，分区名取 ini 标签
type INISerializer struct{}

func (i *INISerializer) Marshal(v interface{}) ([]byte, error) {
	f := ini.Empty()
	if err := f.ReflectFrom(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (i *INISerializer) Unmarshal(data []byte, v interface{}) error {
	f, err := ini.Load(data)
	if err != nil {
		return err
	}
	return f.MapTo(v)
}

func (i *INISerializer) GetFileExts() []string { return []string{".ini"} }
func (i *INISerializer) GetName() string       { return "ini" }
