package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/model"
)

const tsFixture = `import { Widget } from './widget'
import React from 'react'
export { Panel } from '../ui/panel'
const legacy = require('./legacy')

export interface Renderer {
  render(): void
}

export class Button extends Widget implements Renderer, Clickable {
  label: string = 'ok'

  render(): void {
    if (this.label) {
      console.log(this.label)
    }
  }
}

export function createButton(label: string): Button {
  return new Button()
}

export const handler = async (event: Event) => {
  return event
}

const VERSION = '1.0'
`

func extractTS(t *testing.T, path, source string) *Result {
	t.Helper()
	p := NewTypeScriptParser()
	res, err := p.Extract(context.Background(), rec(path, "typescript"), []byte(source))
	require.NoError(t, err)
	return res
}

func TestTypeScriptParser_Symbols(t *testing.T) {
	t.Parallel()

	res := extractTS(t, "src/button.ts", tsFixture)

	assert.NotNil(t, findSymbol(res.Symbols, "Renderer", model.KindInterface))

	button := findSymbol(res.Symbols, "Button", model.KindClass)
	require.NotNil(t, button)
	assert.Equal(t, 10, button.Line)

	render := findSymbol(res.Symbols, "render", model.KindMethod)
	require.NotNil(t, render)
	assert.Equal(t, "Renderer", render.Parent) // First declared in the interface

	label := findSymbol(res.Symbols, "label", model.KindProperty)
	require.NotNil(t, label)
	assert.Equal(t, "Button", label.Parent)

	assert.NotNil(t, findSymbol(res.Symbols, "createButton", model.KindFunction))
	assert.NotNil(t, findSymbol(res.Symbols, "handler", model.KindFunction))
	assert.NotNil(t, findSymbol(res.Symbols, "VERSION", model.KindVariable))

	// Control flow inside method bodies is not a member.
	assert.Nil(t, findSymbol(res.Symbols, "if", model.KindMethod))
}

func TestTypeScriptParser_Relations(t *testing.T) {
	t.Parallel()

	res := extractTS(t, "src/button.ts", tsFixture)
	require.Len(t, res.Fragment.Relations, 3)

	assert.Equal(t, model.TypeRelation{
		SubType: "Button", SuperType: "Widget", Relation: model.RelInherits, Line: 10,
	}, res.Fragment.Relations[0])
	assert.Equal(t, "Renderer", res.Fragment.Relations[1].SuperType)
	assert.Equal(t, model.RelImplements, res.Fragment.Relations[1].Relation)
	assert.Equal(t, "Clickable", res.Fragment.Relations[2].SuperType)
}

func TestTypeScriptParser_ImportResolution(t *testing.T) {
	t.Parallel()

	res := extractTS(t, "src/button.ts", tsFixture)
	require.Len(t, res.Fragment.Imports, 4)

	bySpec := map[string]model.ImportRef{}
	for _, imp := range res.Fragment.Imports {
		bySpec[imp.Specifier] = imp
	}

	widget := bySpec["./widget"]
	assert.Contains(t, widget.Candidates, "src/widget.ts")
	assert.Contains(t, widget.Candidates, "src/widget/index.ts")

	panel := bySpec["../ui/panel"]
	assert.Contains(t, panel.Candidates, "ui/panel.ts")

	// Bare package specifier is external: no candidates, no edge later.
	assert.Empty(t, bySpec["react"].Candidates)

	legacy := bySpec["./legacy"]
	assert.Contains(t, legacy.Candidates, "src/legacy.js")
}
