// Package common registers the standard concept types: modules, data
// structures and their properties, references and hierarchies, item
// filters, save restrictions, indexes and length limits.
//
// A script using them looks like:
//
//	Module Sales {
//	    Entity Customer {
//	        ShortString Name { MaxLength 100; }
//	        Reference Parent Sales.Customer;
//	        Hierarchy Region;
//	        DenySave NoName 'item.Name == ""' 'Name is required.';
//	    }
//	    Browse CustomerGrid Sales.Customer;
//	}
package common
