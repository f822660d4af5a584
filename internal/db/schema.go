package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- CONTRACT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS contract SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON contract TYPE string;
    DEFINE FIELD IF NOT EXISTS agency ON contract TYPE string;
    DEFINE FIELD IF NOT EXISTS location ON contract TYPE string;
    DEFINE FIELD IF NOT EXISTS estimated_value ON contract TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS deadline ON contract TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS description ON contract TYPE string;
    DEFINE FIELD IF NOT EXISTS naics_code ON contract TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS url ON contract TYPE string;
    DEFINE FIELD IF NOT EXISTS solicitation_number ON contract TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS contact_name ON contract TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS contact_email ON contract TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS contact_phone ON contract TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS source ON contract TYPE string;
    DEFINE FIELD IF NOT EXISTS discovered_at ON contract TYPE datetime DEFAULT time::now();
    -- Unique constraint: (solicitation_number, agency) identifies a posting.
    -- Records without a solicitation number get a per-record key from the
    -- application so they never collide with each other.
    DEFINE FIELD IF NOT EXISTS dedup_key ON contract TYPE string;
    DEFINE INDEX IF NOT EXISTS contract_dedup ON contract FIELDS dedup_key UNIQUE;

    DEFINE INDEX IF NOT EXISTS contract_source ON contract FIELDS source;
    DEFINE INDEX IF NOT EXISTS contract_deadline ON contract FIELDS deadline;

    -- ==========================================================================
    -- SCRAPE_RUN TABLE (run log)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS scrape_run SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS scraper ON scrape_run TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON scrape_run TYPE string
        ASSERT $value IN ['running', 'success', 'failed'];
    DEFINE FIELD IF NOT EXISTS found ON scrape_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS saved ON scrape_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS duplicates ON scrape_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS error ON scrape_run TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS started_at ON scrape_run TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON scrape_run TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS scrape_run_scraper ON scrape_run FIELDS scraper;
    DEFINE INDEX IF NOT EXISTS scrape_run_status ON scrape_run FIELDS status;
    DEFINE INDEX IF NOT EXISTS scrape_run_started ON scrape_run FIELDS started_at;
`
