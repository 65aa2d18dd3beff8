package model

// All lists every persisted model in dependency order for migrations.
func All() []interface{} {
	return []interface{}{
		&Location{},
		&Company{},
		&User{},
		&LoginHistory{},
		&PropertyType{},
		&PropertyFeature{},
		&Property{},
		&PropertyImage{},
		&PropertyToFeature{},
		&Blog{},
		&Testimonial{},
		&AccessRequest{},
		&Connection{},
		&OrphanedImage{},
	}
}
