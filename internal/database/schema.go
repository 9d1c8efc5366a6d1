package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements creates the tables on first boot. Statements are
// idempotent; there is no migration tooling, column changes are applied
// by hand.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'operator',
		company_id INT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS companies (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		trade_name VARCHAR(255) NOT NULL DEFAULT '',
		cnpj VARCHAR(14) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(20) NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		state CHAR(2) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_companies_cnpj (cnpj)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS beneficiaries (
		id INT AUTO_INCREMENT PRIMARY KEY,
		company_id INT NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		cpf VARCHAR(11) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(20) NOT NULL DEFAULT '',
		birth_date DATE NULL,
		plan_code VARCHAR(50) NOT NULL DEFAULT '',
		holder_id INT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_beneficiaries_company_cpf (company_id, cpf),
		KEY idx_beneficiaries_company (company_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description VARCHAR(255) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_profiles_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS role_assignments (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		profile_id INT NOT NULL,
		company_id INT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_role_assignments_user (user_id),
		KEY idx_role_assignments_profile (profile_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contracts (
		id INT AUTO_INCREMENT PRIMARY KEY,
		company_id INT NOT NULL,
		number VARCHAR(100) NOT NULL,
		operator VARCHAR(255) NOT NULL DEFAULT '',
		plan_code VARCHAR(50) NOT NULL DEFAULT '',
		start_date DATE NOT NULL,
		end_date DATE NULL,
		lives INT NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_contracts_company (company_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id INT AUTO_INCREMENT PRIMARY KEY,
		company_id INT NOT NULL,
		contract_id INT NULL,
		competence CHAR(7) NOT NULL,
		due_date DATE NOT NULL,
		amount DECIMAL(15,2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_invoices_company_competence (company_id, competence)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS claims (
		id INT AUTO_INCREMENT PRIMARY KEY,
		company_id INT NOT NULL,
		contract_id INT NULL,
		beneficiary_id INT NULL,
		competence CHAR(7) NOT NULL,
		event_date DATE NULL,
		` + "`procedure`" + ` VARCHAR(255) NOT NULL DEFAULT '',
		provider VARCHAR(255) NOT NULL DEFAULT '',
		amount DECIMAL(15,2) NOT NULL DEFAULT 0,
		import_job_id INT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_claims_company_competence (company_id, competence),
		KEY idx_claims_import_job (import_job_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS import_jobs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		job_code VARCHAR(20) NOT NULL,
		kind VARCHAR(20) NOT NULL,
		step VARCHAR(50) NOT NULL DEFAULT '',
		company_id INT NULL,
		user_id INT NOT NULL,
		filename VARCHAR(255) NOT NULL DEFAULT '',
		file_path VARCHAR(500) NOT NULL DEFAULT '',
		pdf_mode VARCHAR(20) NOT NULL DEFAULT '',
		total_rows INT NOT NULL DEFAULT 0,
		valid_rows INT NOT NULL DEFAULT 0,
		warning_rows INT NOT NULL DEFAULT 0,
		error_rows INT NOT NULL DEFAULT 0,
		applied_rows INT NOT NULL DEFAULT 0,
		failed_rows INT NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'uploaded',
		error_message TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_import_jobs_code (job_code),
		KEY idx_import_jobs_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS import_job_rows (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		job_id INT NOT NULL,
		row_index INT NOT NULL,
		fields JSON,
		original_fields JSON,
		errors JSON,
		warnings JSON,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		failure_reason TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_import_job_rows_job (job_id, row_index)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates missing tables on startup
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
