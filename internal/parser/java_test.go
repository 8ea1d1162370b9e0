package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/model"
)

const javaFixture = `package com.acme.shop;

import com.acme.shop.model.Order;
import com.acme.util.*;
import java.util.List;

public class OrderService extends BaseService implements Auditable, Closeable {
    private final List<Order> orders = null;
    private int count;

    public Order findOrder(String id) {
        if (id == null) {
            return null;
        }
        return null;
    }
}

interface Auditable {
    void audit();
}
`

func extractJava(t *testing.T, source string) *Result {
	t.Helper()
	p := NewJavaParser()
	res, err := p.Extract(context.Background(), rec("src/main/java/com/acme/shop/OrderService.java", "java"), []byte(source))
	require.NoError(t, err)
	return res
}

func TestJavaParser_Symbols(t *testing.T) {
	t.Parallel()

	res := extractJava(t, javaFixture)

	pkg := findSymbol(res.Symbols, "com.acme.shop", model.KindNamespace)
	require.NotNil(t, pkg)

	svc := findSymbol(res.Symbols, "OrderService", model.KindClass)
	require.NotNil(t, svc)
	assert.Equal(t, 7, svc.Line)

	find := findSymbol(res.Symbols, "findOrder", model.KindMethod)
	require.NotNil(t, find)
	assert.Equal(t, "OrderService", find.Parent)

	orders := findSymbol(res.Symbols, "orders", model.KindProperty)
	require.NotNil(t, orders)
	assert.Equal(t, "OrderService", orders.Parent)
	assert.NotNil(t, findSymbol(res.Symbols, "count", model.KindProperty))

	assert.NotNil(t, findSymbol(res.Symbols, "Auditable", model.KindInterface))

	// Control flow inside method bodies is not extracted.
	assert.Nil(t, findSymbol(res.Symbols, "if", model.KindMethod))
}

func TestJavaParser_Relations(t *testing.T) {
	t.Parallel()

	res := extractJava(t, javaFixture)
	require.Len(t, res.Fragment.Relations, 3)

	assert.Equal(t, model.TypeRelation{
		SubType: "OrderService", SuperType: "BaseService", Relation: model.RelInherits, Line: 7,
	}, res.Fragment.Relations[0])
	assert.Equal(t, "Auditable", res.Fragment.Relations[1].SuperType)
	assert.Equal(t, model.RelImplements, res.Fragment.Relations[1].Relation)
	assert.Equal(t, "Closeable", res.Fragment.Relations[2].SuperType)
}

func TestJavaParser_ImportResolution(t *testing.T) {
	t.Parallel()

	res := extractJava(t, javaFixture)
	require.Len(t, res.Fragment.Imports, 3)

	bySpec := map[string]model.ImportRef{}
	for _, imp := range res.Fragment.Imports {
		bySpec[imp.Specifier] = imp
	}

	// Dotted path becomes a suffix candidate; the assembler matches it
	// under any source root.
	assert.Equal(t, []string{"com/acme/shop/model/Order.java"}, bySpec["com.acme.shop.model.Order"].Candidates)

	// Wildcard imports cannot name a single file: external.
	assert.Empty(t, bySpec["com.acme.util.*"].Candidates)

	// JDK imports simply never match a repository file.
	assert.Equal(t, []string{"java/util/List.java"}, bySpec["java.util.List"].Candidates)
}
