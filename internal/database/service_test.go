package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeServiceFile(t *testing.T, content string) string {
	t.Helper()
	serviceFile := filepath.Join(t.TempDir(), "pg_service.conf")
	if err := os.WriteFile(serviceFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return serviceFile
}

func TestParsePGServiceFile(t *testing.T) {
	serviceFile := writeServiceFile(t, `# Test pg_service.conf

[testdb]
host=localhost
port=5432
dbname=testdb
user=testuser
password=testpass
sslmode=require

; semicolon comments are allowed too
[another]
host = 192.168.1.100
port = 5433
dbname = anotherdb
user = anotheruser
application_name = sqlguard
`)
	t.Setenv("PGSERVICEFILE", serviceFile)

	services, err := ParsePGServiceFile()
	if err != nil {
		t.Fatalf("ParsePGServiceFile failed: %v", err)
	}

	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}

	first := services[0]
	if first.Name != "testdb" {
		t.Errorf("expected service name 'testdb', got '%s'", first.Name)
	}
	if first.Host != "localhost" {
		t.Errorf("expected host 'localhost', got '%s'", first.Host)
	}
	if first.Port != "5432" {
		t.Errorf("expected port '5432', got '%s'", first.Port)
	}
	if first.DBName != "testdb" {
		t.Errorf("expected dbname 'testdb', got '%s'", first.DBName)
	}
	if first.User != "testuser" {
		t.Errorf("expected user 'testuser', got '%s'", first.User)
	}
	if first.Password != "testpass" {
		t.Errorf("expected password 'testpass', got '%s'", first.Password)
	}
	if first.SSLMode != "require" {
		t.Errorf("expected sslmode 'require', got '%s'", first.SSLMode)
	}

	second := services[1]
	if second.Name != "another" {
		t.Errorf("expected service name 'another', got '%s'", second.Name)
	}
	if second.Host != "192.168.1.100" {
		t.Errorf("expected host '192.168.1.100', got '%s'", second.Host)
	}
	if second.Options["application_name"] != "sqlguard" {
		t.Errorf("expected extra option to be kept, got %v", second.Options)
	}
}

func TestParsePGServiceFileMissing(t *testing.T) {
	_, err := ParsePGServiceFileAt(filepath.Join(t.TempDir(), "nope.conf"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestServiceConnectionString(t *testing.T) {
	service := ServiceEntry{
		Name:     "test",
		Host:     "localhost",
		Port:     "5432",
		DBName:   "testdb",
		User:     "user",
		Password: "pass word",
		SSLMode:  "disable",
	}

	connStr := service.ConnectionString()

	expected := []string{
		"host=localhost",
		"port=5432",
		"dbname=testdb",
		"user=user",
		"password='pass word'",
		"sslmode=disable",
	}

	for _, e := range expected {
		if !strings.Contains(connStr, e) {
			t.Errorf("connection string missing '%s': %s", e, connStr)
		}
	}
}

func TestServiceConnectionStringDefaults(t *testing.T) {
	service := ServiceEntry{
		Name:   "minimal",
		Host:   "localhost",
		DBName: "mydb",
	}

	connStr := service.ConnectionString()

	if !strings.Contains(connStr, "sslmode=prefer") {
		t.Errorf("expected default sslmode=prefer: %s", connStr)
	}
	if strings.Contains(connStr, "port=") {
		t.Errorf("unexpected port in connection string: %s", connStr)
	}
}

func TestGetServiceByName(t *testing.T) {
	services := []ServiceEntry{
		{Name: "one", Host: "host1"},
		{Name: "two", Host: "host2"},
	}

	svc, err := GetServiceByName(services, "two")
	if err != nil {
		t.Fatalf("GetServiceByName failed: %v", err)
	}
	if svc.Host != "host2" {
		t.Errorf("expected host2, got %s", svc.Host)
	}

	if _, err := GetServiceByName(services, "three"); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestServiceSource(t *testing.T) {
	svc := ServiceEntry{Name: "gis", Host: "db.local", DBName: "gis", User: "anon"}

	src := svc.Source()

	if src.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %s", src.Driver)
	}
	if src.Name != "gis" {
		t.Errorf("expected name gis, got %s", src.Name)
	}
	if got := src.Describe(); got != "gis (postgres anon@db.local/gis)" {
		t.Errorf("unexpected description: %s", got)
	}
}
