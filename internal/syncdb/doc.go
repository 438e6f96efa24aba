// Package syncdb reads package metadata from pacman repository sync databases.
//
// A sync database is a tar archive, usually gzip or zstd compressed, holding
// one "<name>-<version>/desc" file per package. Source keeps a local copy of
// each configured repository's database under a cache directory, refreshes it
// from a list of mirrors, and turns the desc files into PackageRecords.
package syncdb
