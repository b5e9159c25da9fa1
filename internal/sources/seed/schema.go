package seed

// File is the top-level structure of the seed YAML.
type File struct {
	Services []ServiceProps `yaml:"services"`
	Users    []UserProps    `yaml:"users,omitempty"`
}

// ServiceProps is one catalog entry.
type ServiceProps struct {
	Name             string `yaml:"name"`
	Type             string `yaml:"type"`
	Status           string `yaml:"status"`
	URL              string `yaml:"url,omitempty"`
	MaintenanceStart string `yaml:"maintenanceStart,omitempty"`
	MaintenanceEnd   string `yaml:"maintenanceEnd,omitempty"`
}

// UserProps is a bootstrap account. Password is plain text here and
// hashed before it is stored.
type UserProps struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}
