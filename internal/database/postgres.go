package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the PostgreSQL pool and bootstraps the schema.
// The handle is owned by the caller (constructed once at startup, closed on shutdown).
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, err
	}

	log.Println("✅ Connected to PostgreSQL")

	if err = initPostgresTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

// initPostgresTables creates all necessary tables if they don't exist
func initPostgresTables(db *sql.DB) error {
	queries := []string{
		// Identity accounts. Profiles are a separate row keyed by the same id;
		// a profile only becomes visible once the email is confirmed.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Resident/staff profiles. id matches users.id (one profile per identity).
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			mobile VARCHAR(50) NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			birth_date DATE,
			role VARCHAR(20) NOT NULL DEFAULT 'resident',
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS document_types (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (price >= 0),
			requirements TEXT NOT NULL DEFAULT '',
			processing_days INTEGER NOT NULL DEFAULT 1 CHECK (processing_days > 0),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES profiles(id),
			document_type_id UUID NOT NULL REFERENCES document_types(id),
			tracking_number VARCHAR(30) NOT NULL UNIQUE,
			status VARCHAR(30) NOT NULL DEFAULT 'pending',
			purpose TEXT NOT NULL,
			id_image_url TEXT NOT NULL,
			id_image_back_url TEXT NOT NULL,
			admin_notes TEXT NOT NULL DEFAULT '',
			signed_document_url TEXT,
			processed_by UUID REFERENCES profiles(id),
			payment_status VARCHAR(20),
			stripe_payment_intent_id VARCHAR(255),
			payment_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Append-only status audit trail. changed_by is NULL for resident
		// self-service actions (cancellation).
		`CREATE TABLE IF NOT EXISTS status_history (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			request_id UUID NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
			old_status VARCHAR(30) NOT NULL,
			new_status VARCHAR(30) NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			changed_by UUID REFERENCES profiles(id),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS resident_documents (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			request_id UUID NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
			file_path TEXT NOT NULL,
			file_name VARCHAR(255) NOT NULL,
			file_type VARCHAR(100) NOT NULL DEFAULT '',
			file_size BIGINT NOT NULL DEFAULT 0,
			file_url TEXT NOT NULL DEFAULT '',
			uploaded_by UUID NOT NULL REFERENCES profiles(id),
			document_category VARCHAR(30) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			request_id UUID NOT NULL REFERENCES requests(id),
			user_id UUID NOT NULL REFERENCES profiles(id),
			stripe_payment_intent_id VARCHAR(255) NOT NULL UNIQUE,
			amount_php NUMERIC(10,2) NOT NULL,
			currency VARCHAR(10) NOT NULL DEFAULT 'PHP',
			payment_method VARCHAR(30) NOT NULL DEFAULT 'card',
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			description TEXT NOT NULL DEFAULT '',
			metadata JSONB,
			payment_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS password_reset_tokens (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token VARCHAR(255) NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Indexes for the hot read paths
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role)`,
		`CREATE INDEX IF NOT EXISTS idx_document_types_is_active ON document_types(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_user_id ON requests(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_tracking_number ON requests(tracking_number)`,
		`CREATE INDEX IF NOT EXISTS idx_status_history_request_id ON status_history(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_status_history_created_at ON status_history(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_resident_documents_request_id ON resident_documents(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_request_id ON payments(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_intent_id ON payments(stripe_payment_intent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_token ON password_reset_tokens(token)`,
		`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_user_id ON password_reset_tokens(user_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}
