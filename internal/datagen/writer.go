package datagen

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetKind enumerates the physical/logical column types the generators
// emit.
type parquetKind int

const (
	kindInt64 parquetKind = iota
	kindDouble
	kindString
	kindBool
	kindTimestampMicros
	kindDate
	kindStringList
)

// parquetColumn describes one output column. Column order in the slice is
// the column order in the file.
type parquetColumn struct {
	Name string
	Kind parquetKind
}

type schemaNode struct {
	Tag    string       `json:"Tag"`
	Fields []schemaNode `json:"Fields,omitempty"`
}

// parquetSchema renders the JSON schema string parquet-go's JSONWriter
// consumes.
func parquetSchema(cols []parquetColumn) string {
	fields := make([]schemaNode, 0, len(cols))
	for _, c := range cols {
		switch c.Kind {
		case kindInt64:
			fields = append(fields, schemaNode{Tag: fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", c.Name)})
		case kindDouble:
			fields = append(fields, schemaNode{Tag: fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", c.Name)})
		case kindString:
			fields = append(fields, schemaNode{Tag: fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", c.Name)})
		case kindBool:
			fields = append(fields, schemaNode{Tag: fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", c.Name)})
		case kindTimestampMicros:
			fields = append(fields, schemaNode{Tag: fmt.Sprintf("name=%s, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL", c.Name)})
		case kindDate:
			fields = append(fields, schemaNode{Tag: fmt.Sprintf("name=%s, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL", c.Name)})
		case kindStringList:
			fields = append(fields, schemaNode{
				Tag: fmt.Sprintf("name=%s, type=LIST, repetitiontype=OPTIONAL", c.Name),
				Fields: []schemaNode{
					{Tag: "name=element, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
				},
			})
		}
	}
	root := schemaNode{Tag: "name=parquet_go_root, repetitiontype=REQUIRED", Fields: fields}
	b, _ := json.Marshal(root)
	return string(b)
}

// writeParquetPartition writes one day's rows to
// <dir>/<YYYY-MM-DD>/data-<YYYY-MM-DD>.parquet with snappy compression.
func writeParquetPartition(dir, date string, cols []parquetColumn, rows []map[string]any) (string, error) {
	partDir := filepath.Join(dir, date)
	if err := os.MkdirAll(partDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create partition directory: %w", err)
	}
	path := filepath.Join(partDir, fmt.Sprintf("data-%s.parquet", date))

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	pw, err := writer.NewJSONWriter(parquetSchema(cols), fw, 4)
	if err != nil {
		_ = fw.Close()
		return "", fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return "", fmt.Errorf("failed to encode row: %w", err)
		}
		if err := pw.Write(string(b)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return "", fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// writeCSVPartition writes one day's rows to
// <dir>/<YYYY-MM-DD>/data-<YYYY-MM-DD>.csv with a header row.
func writeCSVPartition(dir, date string, header []string, rows [][]string) (string, error) {
	partDir := filepath.Join(dir, date)
	if err := os.MkdirAll(partDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create partition directory: %w", err)
	}
	path := filepath.Join(partDir, fmt.Sprintf("data-%s.csv", date))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// writeHourlyJSON writes one hour's records to
// <dir>/year=YYYY/month=MM/day=DD/inferences_hour=HH.json as an indented
// JSON array.
func writeHourlyJSON(dir string, year, month, day, hour int, records any) (string, error) {
	partDir := filepath.Join(dir,
		fmt.Sprintf("year=%d", year),
		fmt.Sprintf("month=%02d", month),
		fmt.Sprintf("day=%02d", day),
	)
	if err := os.MkdirAll(partDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create partition directory: %w", err)
	}
	path := filepath.Join(partDir, fmt.Sprintf("inferences_hour=%02d.json", hour))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
