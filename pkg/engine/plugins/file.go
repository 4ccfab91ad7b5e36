package plugins

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"time"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
)

const fileDirectiveSDL = `
directive @file(
  """File format can be CSV, TSV, JSON, HTML or MARKDOWN."""
  format: FileFormat!
  """Output can be BASE64, STRING, DATAURI, LINK or NATIVE."""
  output: FileOutput = BASE64
) on QUERY
`

const fileDefinitionsSDL = `
"""File Output Format"""
enum FileOutput {
  """Output as a base64 string"""
  BASE64
  """Output as an escaped string"""
  STRING
  """Output as a Data URI"""
  DATAURI
  """Upload to object storage and output a presigned link"""
  LINK
  """Output with no changes"""
  NATIVE
}

"""File format for each array at the root of the query results"""
enum FileFormat {
  """Comma separated value file"""
  CSV
  """Tab separated value file"""
  TSV
  """JSON file"""
  JSON
  """HTML format"""
  HTML
  """Markdown format"""
  MARKDOWN
}
`

const presignedLinkExpiry = 7 * 24 * time.Hour

var (
	fileExtensions = map[string]string{
		"CSV": "csv", "TSV": "tsv", "JSON": "json", "HTML": "html", "MARKDOWN": "md",
	}
	fileMimeTypes = map[string]string{
		"CSV":      "text/csv",
		"TSV":      "text/tab-separated-values",
		"JSON":     consts.ContentTypeJson,
		"HTML":     "text/html",
		"MARKDOWN": "text/markdown",
	}
)

// file 把每个root结果集渲染为文件格式，产物写入extensions.files
// 上下文携带响应写入器时（raw下载路由）直接回写文件内容并终止后续插件
type file struct {
	directive   *ast.DirectiveDefinition
	definitions ast.DefinitionList
}

func newFile() *file {
	return &file{
		directive:   mustParseDirective(fileDirectiveSDL),
		definitions: mustParseDefinitions(fileDefinitionsSDL),
	}
}

func (p *file) Name() string {
	return "file"
}

func (p *file) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *file) Definitions() ast.DefinitionList {
	return p.definitions
}

func (p *file) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{"output": "BASE64"}
}

func (p *file) TransformResponse(resolver *directives.TransformResolver) error {
	format := cast.ToString(resolver.Args["format"])
	output := cast.ToString(resolver.Args["output"])
	extension, supported := fileExtensions[format]
	if !supported {
		return fmt.Errorf("unsupported file format %q", format)
	}

	files := make(map[string]interface{})
	contents := make(map[string]string)
	for root, value := range resolver.Result.Data {
		items, ok := value.([]interface{})
		if !ok {
			continue
		}

		content, err := renderFileContent(items, format)
		if err != nil {
			return err
		}
		contents[root] = content
		encoded, err := p.encodeOutput(resolver, root, content, format, output, items)
		if err != nil {
			return err
		}
		files[root] = map[string]interface{}{extension: encoded}
	}
	resolver.Result.AddExtensions(map[string]interface{}{"files": files})

	if resolver.Response != nil {
		return p.writeDownload(resolver, contents, format)
	}
	return nil
}

func (p *file) TransformErrorCode() string {
	return "FILE_OUTPUT_ERROR"
}

func renderFileContent(items []interface{}, format string) (string, error) {
	if format == "JSON" {
		raw, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	headers, rows := tabularize(items)
	switch format {
	case "CSV":
		return renderSeparated(headers, rows, ',')
	case "TSV":
		return renderSeparated(headers, rows, '\t')
	case "HTML":
		return renderHTML(headers, rows), nil
	case "MARKDOWN":
		return renderMarkdown(headers, rows), nil
	default:
		return "", fmt.Errorf("unsupported file format %q", format)
	}
}

func (p *file) encodeOutput(resolver *directives.TransformResolver, root, content,
	format, output string, items []interface{}) (interface{}, error) {
	switch output {
	case "BASE64":
		return base64.StdEncoding.EncodeToString([]byte(content)), nil
	case "STRING":
		return content, nil
	case "DATAURI":
		return "data:" + fileMimeTypes[format] + ";base64," +
			base64.StdEncoding.EncodeToString([]byte(content)), nil
	case "NATIVE":
		if format == "JSON" {
			return items, nil
		}
		return content, nil
	case "LINK":
		return p.uploadForLink(resolver, root, content, format)
	default:
		return nil, fmt.Errorf("unsupported file output %q", output)
	}
}

// uploadForLink 上传渲染产物到对象存储并返回限时预签名链接
func (p *file) uploadForLink(resolver *directives.TransformResolver, root, content, format string) (string, error) {
	endpoint := utils.GetStringWithLockViper(consts.MinioEndpoint)
	bucket := utils.GetStringWithLockViper(consts.MinioBucket)
	if endpoint == "" || bucket == "" {
		return "", fmt.Errorf("%s and %s required for LINK output", consts.MinioEndpoint, consts.MinioBucket)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			utils.GetStringWithLockViper(consts.MinioAccessKey),
			utils.GetStringWithLockViper(consts.MinioSecretKey), ""),
		Secure: utils.GetBoolWithLockViper(consts.MinioUseSSL),
	})
	if err != nil {
		return "", err
	}

	objectName := utils.JoinString(utils.StringDot,
		root+"-"+uuid.NewString(), fileExtensions[format])
	reader := bytes.NewReader([]byte(content))
	if _, err = client.PutObject(resolver.Ctx, bucket, objectName, reader, int64(reader.Len()),
		minio.PutObjectOptions{ContentType: fileMimeTypes[format]}); err != nil {
		return "", err
	}

	link, err := client.PresignedGetObject(resolver.Ctx, bucket, objectName, presignedLinkExpiry, nil)
	if err != nil {
		return "", err
	}
	return link.String(), nil
}

// writeDownload 把第一个root的文件内容作为附件直接写回响应
func (p *file) writeDownload(resolver *directives.TransformResolver, contents map[string]string, format string) error {
	resolver.StopProcessing = true

	roots := make([]string, 0, len(contents))
	for root := range contents {
		roots = append(roots, root)
	}
	if len(roots) == 0 {
		return fmt.Errorf("no dataset available for %s download", format)
	}
	sort.Strings(roots)
	root := roots[0]

	content := []byte(contents[root])
	if format == "JSON" {
		raw, err := json.Marshal(resolver.Result)
		if err != nil {
			return err
		}
		content = raw
	}

	header := resolver.Response.Header()
	header.Set(consts.HeaderParamContentType, fileMimeTypes[format]+"; charset=utf-8")
	header.Set("Content-Disposition",
		`attachment; filename="`+root+"."+fileExtensions[format]+`"`)
	header.Set(consts.HeaderParamContentLength, strconv.Itoa(len(content)))
	_, err := resolver.Response.Write(content)
	return err
}
