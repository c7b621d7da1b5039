package jsonapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Resource types used by the panel's endpoints.
const (
	TypeApp  = "apps"
	TypeUser = "users"
)

// Resource is the {id,type,attributes} member of a response document.
type Resource struct {
	ID         string      `json:"id,omitempty"`
	Type       string      `json:"type"`
	Attributes interface{} `json:"attributes"`
}

type document struct {
	Data Resource `json:"data"`
}

type listDocument struct {
	Data []Resource `json:"data"`
}

func NewResource(resourceType, id string, attributes interface{}) Resource {
	return Resource{ID: id, Type: resourceType, Attributes: attributes}
}

// Write serializes a single resource into the {data:{...}} envelope.
func Write(w http.ResponseWriter, status int, resourceType, id string, attributes interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(document{Data: NewResource(resourceType, id, attributes)})
}

// WriteList serializes a resource collection into the {data:[...]} envelope.
func WriteList(w http.ResponseWriter, status int, resources []Resource) {
	if resources == nil {
		resources = []Resource{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(listDocument{Data: resources})
}

type requestBody struct {
	Data struct {
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
}

// DecodeAttributes unwraps a {data:{attributes:{...}}} request body into dst.
func DecodeAttributes(r *http.Request, dst interface{}) error {
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return err
	}
	if len(body.Data.Attributes) == 0 {
		return errors.New("missing data.attributes")
	}
	return json.Unmarshal(body.Data.Attributes, dst)
}
