package domain

var Tables = []interface{}{
	// System
	&SysOprLog{},
	// Identity
	&Identity{},
	&Admin{},
	&Customer{},
	// Catalog
	&Category{},
	&Product{},
	&ProductImage{},
	// Sales
	&CartLine{},
	&Order{},
	&Payment{},
	// Customer service
	&Feedback{},
	&Complaint{},
}
