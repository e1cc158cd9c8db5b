package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_CollectsConditionsInOrder(t *testing.T) {
	q := Build(
		WithCondition("name", "Teal"),
		WithConditionIn("name", []string{"a", "b"}),
		WithNotNull("embedding_openai"),
	)

	conds := q.Conditions()
	require.Len(t, conds, 3)
	assert.Equal(t, ConditionEqual, conds[0].Kind())
	assert.True(t, conds[1].In())
	assert.Equal(t, ConditionNotNull, conds[2].Kind())
	assert.Nil(t, conds[2].Value())
	assert.Equal(t, "embedding_openai IS NOT NULL", conds[2].String())
	assert.Equal(t, "name = Teal", conds[0].String())
}

func TestBuild_Pagination(t *testing.T) {
	q := Build(WithLimit(5), WithOffset(10), WithOrderAsc("id"), WithOrderDesc("created_at"))

	assert.Equal(t, 5, q.LimitValue())
	assert.Equal(t, 10, q.OffsetValue())
	orders := q.Orders()
	require.Len(t, orders, 2)
	assert.True(t, orders[0].Ascending())
	assert.False(t, orders[1].Ascending())
}

func TestQuery_ConditionsReturnsCopy(t *testing.T) {
	q := Build(WithID(1))
	conds := q.Conditions()
	conds[0] = Condition{field: "mutated"}

	assert.Equal(t, "id", q.Conditions()[0].Field())
}
