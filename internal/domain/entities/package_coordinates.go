package entities

// DefaultPackageFormat is the only ecosystem reqguard reconciles.
const DefaultPackageFormat = "pypi"

// PackageCoordinates locate the target package repository.
type PackageCoordinates struct {
	Domain      string `yaml:"domain"`
	DomainOwner string `yaml:"domain_owner"`
	Repository  string `yaml:"repository"`
	Format      string `yaml:"format"`
}
