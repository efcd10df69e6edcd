package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

func TestRemoveLastProductIsRefused(t *testing.T) {
	o := entity.Order{
		Products: entity.Products{{ID: "p1", Name: "Polo"}},
		Tasks:    entity.Tasks{{ID: "1", Status: entity.TaskToDo, ProductID: "p1"}},
	}

	out, err := RemoveProduct(o, "p1")
	assert.ErrorIs(t, err, ErrLastProduct)
	assert.Equal(t, o, out)
	assert.Equal(t, ident.ID("p1"), out.Tasks[0].ProductID)
}

func TestRemoveProductReassignsOrphans(t *testing.T) {
	o := sampleOrder()

	out, err := RemoveProduct(o, "p1")
	require.NoError(t, err)
	require.Len(t, out.Products, 1)
	assert.Equal(t, ident.ID("p2"), out.Products[0].ID)
	for _, task := range out.Tasks {
		assert.Equal(t, ident.ID("p2"), task.ProductID, "task %s", task.ID)
	}

	assert.Len(t, o.Products, 2)
	assert.Equal(t, ident.ID("p1"), o.Tasks[0].ProductID)
}

func TestRemoveNonFirstProductMovesTasksToFirst(t *testing.T) {
	o := sampleOrder()
	o.Products = append(o.Products, entity.Product{ID: "p3"})
	o.Tasks = append(o.Tasks, entity.Task{ID: "4", Status: entity.TaskToDo, ProductID: "p3"})

	out, err := RemoveProduct(o, "p3")
	require.NoError(t, err)
	assert.Equal(t, ident.ID("p1"), out.Tasks[3].ProductID)
	assert.Equal(t, ident.ID("p2"), out.Tasks[2].ProductID)
}

func TestAddAndUpdateProduct(t *testing.T) {
	o := sampleOrder()
	out, p := AddProduct(o)
	require.Len(t, out.Products, 3)
	assert.Equal(t, p, out.Products[2])
	assert.False(t, p.ID.IsZero())

	out, err := UpdateProduct(out, p.ID, FieldName, "Jacket")
	require.NoError(t, err)
	out, err = UpdateProduct(out, p.ID, FieldCategory, "Outerwear")
	require.NoError(t, err)
	assert.Equal(t, "Jacket", out.Products[2].Name)
	assert.Equal(t, "Outerwear", out.Products[2].Category)

	_, err = UpdateProduct(out, p.ID, "price", "12")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = UpdateProduct(out, "nope", FieldName, "x")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSetFactoryModesAreExclusive(t *testing.T) {
	o := sampleOrder()
	o.CustomFactoryName = "Old Mill"
	o.CustomFactoryLocation = "Dhaka"

	out, err := SetFactory(o, FactoryAssignment{FactoryID: "f-1"})
	require.NoError(t, err)
	assert.Equal(t, "f-1", out.FactoryID)
	assert.Empty(t, out.CustomFactoryName)
	assert.Empty(t, out.CustomFactoryLocation)

	out, err = SetFactory(out, FactoryAssignment{CustomName: "New Mill", CustomLocation: "Tiruppur"})
	require.NoError(t, err)
	assert.Empty(t, out.FactoryID)
	assert.Equal(t, "New Mill", out.CustomFactoryName)

	_, err = SetFactory(out, FactoryAssignment{FactoryID: "f-1", CustomName: "x"})
	assert.ErrorIs(t, err, ErrFactoryConflict)
}

func TestSetStatus(t *testing.T) {
	out, err := SetStatus(sampleOrder(), entity.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusShipped, out.Status)

	_, err = SetStatus(out, "Lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
