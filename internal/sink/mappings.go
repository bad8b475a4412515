package sink

// tableIndexMapping is the mapping applied when the table search index is
// first created.
const tableIndexMapping = `{
  "mappings": {
    "properties": {
      "table_id": {"type": "keyword"},
      "database": {"type": "keyword"},
      "service": {"type": "keyword"},
      "service_type": {"type": "keyword"},
      "service_category": {"type": "keyword"},
      "table_name": {"type": "text"},
      "suggest": {"type": "completion"},
      "description": {"type": "text"},
      "table_type": {"type": "keyword"},
      "last_updated_timestamp": {"type": "date", "format": "epoch_second"},
      "column_names": {"type": "text"},
      "column_descriptions": {"type": "text"},
      "tier": {"type": "keyword"},
      "tags": {"type": "keyword"},
      "fqdn": {"type": "keyword"},
      "owner": {"type": "keyword"}
    }
  }
}`
