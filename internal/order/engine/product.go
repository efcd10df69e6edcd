package engine

import (
	"github.com/rishitshah12/Auctave-User-sub002/internal/order/entity"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/ident"
)

const (
	defaultProductName   = "New Product"
	defaultProductStatus = "Pending"
)

// Product fields accepted by UpdateProduct
const (
	FieldName     = "name"
	FieldCategory = "category"
	FieldStatus   = "status"
)

// FactoryAssignment is either a registered factory or a custom one.
type FactoryAssignment struct {
	FactoryID      string `json:"factory_id"`
	CustomName     string `json:"custom_factory_name"`
	CustomLocation string `json:"custom_factory_location"`
}

func AddProduct(o entity.Order) (entity.Order, entity.Product) {
	p := entity.Product{
		ID:     ident.New(),
		Name:   defaultProductName,
		Status: defaultProductStatus,
	}
	out := o.Clone()
	out.Products = append(out.Products, p)
	return out, p
}

func indexOfProduct(o entity.Order, id ident.ID) int {
	for i, p := range o.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func UpdateProduct(o entity.Order, id ident.ID, field, value string) (entity.Order, error) {
	i := indexOfProduct(o, id)
	if i < 0 {
		return o, ErrProductNotFound
	}
	out := o.Clone()
	switch field {
	case FieldName:
		out.Products[i].Name = value
	case FieldCategory:
		out.Products[i].Category = value
	case FieldStatus:
		out.Products[i].Status = value
	default:
		return o, ErrUnknownField
	}
	return out, nil
}

// RemoveProduct drops a product and moves its tasks to the new first
// product. The last product cannot be removed.
func RemoveProduct(o entity.Order, id ident.ID) (entity.Order, error) {
	i := indexOfProduct(o, id)
	if i < 0 {
		return o, ErrProductNotFound
	}
	if len(o.Products) <= 1 {
		return o, ErrLastProduct
	}

	out := o.Clone()
	out.Products = append(out.Products[:i], out.Products[i+1:]...)

	var heir ident.ID
	if len(out.Products) > 0 {
		heir = out.Products[0].ID
	}
	for k := range out.Tasks {
		if out.Tasks[k].ProductID == id {
			out.Tasks[k].ProductID = heir
		}
	}
	return out, nil
}

// SetFactory assigns the factory, clearing the other assignment mode. An
// empty assignment unassigns.
func SetFactory(o entity.Order, a FactoryAssignment) (entity.Order, error) {
	if a.FactoryID != "" && (a.CustomName != "" || a.CustomLocation != "") {
		return o, ErrFactoryConflict
	}
	out := o.Clone()
	out.FactoryID = a.FactoryID
	out.CustomFactoryName = a.CustomName
	out.CustomFactoryLocation = a.CustomLocation
	return out, nil
}

func SetStatus(o entity.Order, status string) (entity.Order, error) {
	if !entity.IsValidStatus(status) {
		return o, ErrInvalidStatus
	}
	out := o.Clone()
	out.Status = status
	return out, nil
}
