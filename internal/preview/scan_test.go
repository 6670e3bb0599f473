package preview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAppFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanApps(t *testing.T) {
	repo := t.TempDir()
	writeAppFiles(t, repo, map[string]string{
		"app.py":           "# My Streamlit dashboard app\nimport streamlit as st\n",
		"requirements.txt": "flask\n",
		"script.js":        "// Simple express server\nconst express = require('express');\n",
		"web/index.html":   "<html><body>hi</body></html>",
	})

	want := "Found potential applications in the repository:\n\n" +
		"1. app.py (Streamlit)\n   Description: My Streamlit dashboard app\n\n" +
		"2. requirements.txt (Python)\n   Description: Python application with dependencies\n\n" +
		"3. script.js (Express.js)\n   Description: Simple express server\n\n" +
		"4. web/index.html (HTML)\n   Description: HTML application\n\n" +
		"\nYou can generate and run a UI for any of these applications using the 'generate_ui' action with the app_path parameter."
	if got := scanApps(repo); got != want {
		t.Fatalf("scanApps() =\n%s\n\nwant:\n%s", got, want)
	}
}

func TestScanAppsEmpty(t *testing.T) {
	want := "No potential application entry points found in the repository."
	if got := scanApps(t.TempDir()); got != want {
		t.Fatalf("scanApps() = %q, want %q", got, want)
	}
}

func TestScanAppsSkipsHiddenDirs(t *testing.T) {
	repo := t.TempDir()
	writeAppFiles(t, repo, map[string]string{
		".git/hooks.py":         "print('x')\n",
		"node_modules/lib/x.js": "module.exports = {};\n",
	})

	want := "No potential application entry points found in the repository."
	if got := scanApps(repo); got != want {
		t.Fatalf("scanApps() = %q, want %q", got, want)
	}
}

func TestDetectAppType(t *testing.T) {
	tests := []struct {
		path, content, want string
	}{
		{"app.py", "import streamlit", "Streamlit"},
		{"app.py", "from flask import Flask", "Flask"},
		{"manage.py", "import django", "Django"},
		{"api.py", "from fastapi import FastAPI", "FastAPI"},
		{"tool.py", "print('x')", "Python"},
		{"app.js", "import React from 'react'", "React"},
		{"server.js", "const express = require('express')", "Express.js"},
		{"main.js", "import Vue from 'vue'", "Vue.js"},
		{"util.js", "console.log(1)", "JavaScript"},
		{"web/index.html", "<html></html>", "HTML"},
		{"web/package.json", "{}", "Node.js"},
		{"requirements.txt", "flask", "Python"},
		{"notes.txt", "hello", ""},
	}
	for _, tt := range tests {
		if got := detectAppType(tt.path, tt.content); got != tt.want {
			t.Errorf("detectAppType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAppDescription(t *testing.T) {
	desc := appDescription("app.py", "# Dashboard for sales metrics\n# Updated daily\nimport os\n")
	if want := "Dashboard for sales metrics Updated daily"; desc != want {
		t.Fatalf("description = %q, want %q", desc, want)
	}

	long := "// " + strings.Repeat("x", 250) + "\ncode()\n"
	desc = appDescription("a.js", long)
	if want := strings.Repeat("x", 200) + "..."; desc != want {
		t.Fatalf("long description = %q", desc)
	}

	// blocks of 10 characters or fewer fall through to the type label
	desc = appDescription("tiny.py", "# short\nprint()\n")
	if want := "Python application"; desc != want {
		t.Fatalf("description = %q, want %q", desc, want)
	}

	desc = appDescription("package.json", "{\n  \"name\": \"demo\"\n}\n")
	if want := "Node.js application"; desc != want {
		t.Fatalf("description = %q, want %q", desc, want)
	}
}
