package database

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ServiceEntry represents a PostgreSQL service configuration
type ServiceEntry struct {
	Name     string
	Host     string
	Port     string
	DBName   string
	User     string
	Password string
	SSLMode  string
	Options  map[string]string
}

// ParsePGServiceFile parses the first pg_service.conf found in the
// standard locations
func ParsePGServiceFile() ([]ServiceEntry, error) {
	for _, path := range pgServicePaths() {
		if _, err := os.Stat(path); err == nil {
			return ParsePGServiceFileAt(path)
		}
	}
	return nil, fmt.Errorf("no pg_service.conf found in standard locations")
}

// pgServicePaths returns possible pg_service.conf locations
func pgServicePaths() []string {
	var paths []string

	if envPath := os.Getenv("PGSERVICEFILE"); envPath != "" {
		paths = append(paths, envPath)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pg_service.conf"))
	}
	if sysconf := os.Getenv("PGSYSCONFDIR"); sysconf != "" {
		paths = append(paths, filepath.Join(sysconf, "pg_service.conf"))
	}

	return append(paths, "/etc/pg_service.conf", "/etc/postgresql-common/pg_service.conf")
}

// PGServiceFileExists checks if any pg_service.conf can be found
func PGServiceFileExists() bool {
	for _, path := range pgServicePaths() {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// ParsePGServiceFileAt parses the pg_service.conf file at path
func ParsePGServiceFileAt(path string) ([]ServiceEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var services []ServiceEntry
	var current *ServiceEntry

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if current != nil {
				services = append(services, *current)
			}
			current = &ServiceEntry{
				Name:    strings.TrimSpace(line[1 : len(line)-1]),
				Options: make(map[string]string),
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if current == nil || !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "host", "hostaddr":
			current.Host = value
		case "port":
			current.Port = value
		case "dbname":
			current.DBName = value
		case "user":
			current.User = value
		case "password":
			current.Password = value
		case "sslmode":
			current.SSLMode = value
		default:
			current.Options[key] = value
		}
	}

	if current != nil {
		services = append(services, *current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return services, nil
}

// ConnectionString returns a lib/pq key=value connection string
func (s *ServiceEntry) ConnectionString() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quoteConnValue(v))
		}
	}

	add("host", s.Host)
	add("port", s.Port)
	add("dbname", s.DBName)
	add("user", s.User)
	add("password", s.Password)
	if s.SSLMode != "" {
		add("sslmode", s.SSLMode)
	} else {
		parts = append(parts, "sslmode=prefer")
	}

	keys := make([]string, 0, len(s.Options))
	for k := range s.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, s.Options[k])
	}

	return strings.Join(parts, " ")
}

// quoteConnValue quotes values containing spaces or quotes
func quoteConnValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Source returns the connectable source for this service
func (s *ServiceEntry) Source() Source {
	return Source{Name: s.Name, Driver: DriverPostgres, DSN: s.ConnectionString()}
}

// GetServiceByName finds a service by name from the list
func GetServiceByName(services []ServiceEntry, name string) (*ServiceEntry, error) {
	for i := range services {
		if services[i].Name == name {
			return &services[i], nil
		}
	}
	return nil, fmt.Errorf("service '%s' not found", name)
}

// LookupService parses the service file and returns the named entry
func LookupService(name string) (*ServiceEntry, error) {
	services, err := ParsePGServiceFile()
	if err != nil {
		return nil, err
	}
	return GetServiceByName(services, name)
}
