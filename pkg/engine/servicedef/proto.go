package servicedef

import (
	"github.com/flowchartsman/handlebars/v3"
)

const protoTemplate = `syntax = "proto3";

package {{Package}};

{{#each Enums}}
enum {{Name}} {
{{#each Values}}
  {{this}} = {{@index}};
{{/each}}
}

{{/each}}
{{#each Messages}}
message {{Name}} {
{{#each Fields}}
  {{#if Repeated}}repeated {{/if}}{{Type}} {{Name}} = {{Index}};
{{/each}}
}

{{/each}}
service {{Service}} {
{{#each Calls}}
  rpc {{Name}}({{Input}}) returns ({{Output}});
{{/each}}
}
`

// RenderProto 渲染proto3服务描述文本
func (d *ServiceDefinition) RenderProto(packageName string) (string, error) {
	tpl, err := handlebars.Parse(protoTemplate)
	if err != nil {
		return "", err
	}

	return tpl.Exec(map[string]interface{}{
		"Package":  packageName,
		"Service":  d.Service,
		"Enums":    d.Enums,
		"Messages": d.Messages,
		"Calls":    d.Calls,
	})
}
