package entity

// Product vista de solo lectura del catálogo: existencia y nombre para mensajes.
type Product struct {
	ID       string
	TenantID string
	SKU      string
	Name     string
}

// DisplayName devuelve el nombre o, si falta, el SKU o el ID.
func (p *Product) DisplayName() string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	case p.SKU != "":
		return p.SKU
	}
	return p.ID
}
