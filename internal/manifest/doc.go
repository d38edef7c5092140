// Package manifest declares concept types and template macro rules in HCL.
//
// A manifest file holds any number of `concept` and `macro` blocks:
//
//	concept "Decimal" {
//	  keyword = "Decimal"
//	  base    = "Property"
//	}
//
//	macro "audit_columns" {
//	  on   = "Entity"
//	  when = self.Name != "Log"
//	  emit "ShortString" {
//	    DataStructure = self.path
//	    Name          = "CreatedBy"
//	  }
//	}
//
// Macro expressions see the triggering concept as `self`, an object holding
// every member as a string plus `type`, `key` and `path`. A loaded Manifest
// is a registry.Module.
package manifest
