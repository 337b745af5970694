package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clouddwh/architect/internal/project"
)

func TestParseMember(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		role    project.Role
		want    project.Member
		wantErr bool
	}{
		{"regular", "u1:Ada:developer", "", project.Member{ID: "u1", Name: "Ada", Role: project.RoleDeveloper}, false},
		{"owner slot", "u1:Ada", project.RoleOwner, project.Member{ID: "u1", Name: "Ada", Role: project.RoleOwner}, false},
		{"owner role as member", "u1:Ada:owner", "", project.Member{}, true},
		{"missing role", "u1:Ada", "", project.Member{}, true},
		{"missing id", ":Ada:visitor", "", project.Member{}, true},
		{"slot with role", "u1:Ada:manager", project.RoleManager, project.Member{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMember(tt.spec, tt.role)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMember(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseMember(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		spec    string
		want    any
		wantErr bool
	}{
		{"region=string:eu-west-1", "eu-west-1", false},
		{"url=string:http://x:8080", "http://x:8080", false},
		{"nodes=number: 4", 4.0, false},
		{"encrypted=boolean:yes", true, false},
		{"encrypted=boolean:0", false, false},
		{"encrypted=boolean:maybe", nil, true},
		{"nodes=number:many", nil, true},
		{"nodes=integer:4", nil, true},
		{"=string:x", nil, true},
		{"novalue", nil, true},
	}
	for _, tt := range tests {
		got, err := parseAttribute(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseAttribute(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
		}
		if !tt.wantErr && got.Value != tt.want {
			t.Errorf("parseAttribute(%q) value = %v, want %v", tt.spec, got.Value, tt.want)
		}
	}
}

func TestReadDefinitionYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "def.yaml")
	content := `
name: Lakehouse
description: Raw and curated zones
owner: {id: u1, name: Ada, role: owner}
members:
  - {id: u2, name: Grace, role: developer}
attributes:
  - {key: nodes, type: number, value: 3}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := readDefinition(path)
	if err != nil {
		t.Fatalf("readDefinition: %v", err)
	}
	if def.Name != "Lakehouse" || def.Description == nil || *def.Description != "Raw and curated zones" {
		t.Errorf("unexpected header: %+v", def)
	}
	if def.Owner.ID != "u1" || def.Owner.Role != project.RoleOwner {
		t.Errorf("owner = %+v", def.Owner)
	}
	if len(def.Members) != 1 || def.Members[0].Role != project.RoleDeveloper {
		t.Errorf("members = %+v", def.Members)
	}
	if err := def.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadDefinitionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "def.json")
	content := `{"name": "Mart", "owner": {"id": "u1", "name": "Ada", "role": "owner"}, "manager": {"id": "u2", "name": "Grace", "role": "manager"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := readDefinition(path)
	if err != nil {
		t.Fatalf("readDefinition: %v", err)
	}
	if def.Manager == nil || def.Manager.ID != "u2" {
		t.Errorf("manager = %+v", def.Manager)
	}
}
