package plugins

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"augment-gateway/pkg/common/utils"
	json "github.com/json-iterator/go"
	"golang.org/x/exp/slices"
)

// flattenRecord 嵌套对象按点号拍平，数组元素用下标做键
// 表格类格式要求每行是单层的列值映射
func flattenRecord(record map[string]interface{}) map[string]interface{} {
	flattened := make(map[string]interface{}, len(record))
	flattenValue("", record, flattened)
	return flattened
}

func flattenValue(prefix string, value interface{}, flattened map[string]interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		if len(v) == 0 && prefix != "" {
			flattened[prefix] = v
			return
		}
		for k, item := range v {
			flattenValue(joinFlatKey(prefix, k), item, flattened)
		}
	case []interface{}:
		if len(v) == 0 && prefix != "" {
			flattened[prefix] = v
			return
		}
		for index, item := range v {
			flattenValue(joinFlatKey(prefix, fmt.Sprintf("%d", index)), item, flattened)
		}
	default:
		flattened[prefix] = value
	}
}

func joinFlatKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return utils.JoinString(utils.StringDot, prefix, key)
}

// tabularize 数据集转为表头和行，表头为全部记录拍平后键的有序并集
// 非对象元素归入单列value
func tabularize(items []interface{}) (headers []string, rows [][]string) {
	flattenedItems := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			record = map[string]interface{}{"value": item}
		}
		flattened := flattenRecord(record)
		for key := range flattened {
			if !slices.Contains(headers, key) {
				headers = append(headers, key)
			}
		}
		flattenedItems = append(flattenedItems, flattened)
	}
	slices.Sort(headers)

	for _, flattened := range flattenedItems {
		row := make([]string, 0, len(headers))
		for _, header := range headers {
			row = append(row, cellString(flattened[header]))
		}
		rows = append(rows, row)
	}
	return
}

func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderSeparated(headers []string, rows [][]string, delimiter rune) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = delimiter
	if err := writer.Write(headers); err != nil {
		return "", err
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(headers []string, rows [][]string) string {
	var buf bytes.Buffer
	buf.WriteString("<table>\n<thead><tr>")
	for _, header := range headers {
		buf.WriteString("<th>" + htmlEscape(header) + "</th>")
	}
	buf.WriteString("</tr></thead>\n<tbody>\n")
	for _, row := range rows {
		buf.WriteString("<tr>")
		for _, cell := range row {
			buf.WriteString("<td>" + htmlEscape(cell) + "</td>")
		}
		buf.WriteString("</tr>\n")
	}
	buf.WriteString("</tbody>\n</table>")
	return buf.String()
}

func htmlEscape(value string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return replacer.Replace(value)
}

func renderMarkdown(headers []string, rows [][]string) string {
	var buf bytes.Buffer
	writeMarkdownRow(&buf, headers)
	separators := make([]string, 0, len(headers))
	for range headers {
		separators = append(separators, "---")
	}
	writeMarkdownRow(&buf, separators)
	for _, row := range rows {
		writeMarkdownRow(&buf, row)
	}
	return buf.String()
}

func writeMarkdownRow(buf *bytes.Buffer, cells []string) {
	buf.WriteString("|")
	for _, cell := range cells {
		buf.WriteString(" " + strings.ReplaceAll(cell, "|", `\|`) + " |")
	}
	buf.WriteString("\n")
}
