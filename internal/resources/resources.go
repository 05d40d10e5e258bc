// Package resources lists the link configurations compiled into the
// gateway for the sample thoughts API.
package resources

import (
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/jsonvalue"
)

// APITitle is the info.title of the sample API document.
const APITitle = "WebApi"

// Builtin returns a fresh copy of the compiled-in configurations. The list is
// closed: adding a resource means adding it here or to a link file.
func Builtin() []hateoas.Configuration {
	return []hateoas.Configuration{
		thought(),
		thoughtList(),
		thoughtCreated(),
		topic(),
	}
}

func thought() hateoas.Configuration {
	return hateoas.Configuration{
		APITitle:   APITitle,
		SchemaName: "Thought",
		Links: map[string]string{
			"get-thought-by-id": "self",
			"delete-thought":    "delete",
		},
		Conditions: map[string]hateoas.Condition{
			// Confidential thoughts cannot be deleted through the API.
			"delete": {
				Property:  "description",
				Kind:      jsonvalue.KindString,
				Predicate: hateoas.NotEquals(jsonvalue.String("Confidential")),
			},
		},
	}
}

func thoughtList() hateoas.Configuration {
	return hateoas.Configuration{
		APITitle:   APITitle,
		SchemaName: "ThoughtList",
		Links: map[string]string{
			"get-thoughts":   "self",
			"create-thought": "create",
		},
	}
}

// ThoughtCreated carries `id` rather than `thoughtId`, so its self link
// keeps the placeholder unresolved.
func thoughtCreated() hateoas.Configuration {
	return hateoas.Configuration{
		APITitle:   APITitle,
		SchemaName: "ThoughtCreated",
		Links: map[string]string{
			"get-thought-by-id": "self",
		},
	}
}

func topic() hateoas.Configuration {
	return hateoas.Configuration{
		APITitle:   APITitle,
		SchemaName: "Topic",
		Links: map[string]string{
			"get-topic-by-title": "self",
		},
	}
}
